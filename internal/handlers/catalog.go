package handlers

import (
	"net/http"
	"strings"

	"github.com/ukydev/fleet-maintenance/internal/catalog"
)

// CatalogReader is the read side of the Caterpillar catalog.
type CatalogReader interface {
	LookupWithSerial(model, serial string) *catalog.EquipmentData
	Intervals() []catalog.Interval
	Aliases() []catalog.ModelAliases
}

// CatalogHandler serves the Caterpillar maintenance catalog.
type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(c CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Equipment returns the catalog data for ?modelo= and optional ?serie=.
func (h *CatalogHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	model := strings.TrimSpace(q.Get("modelo"))
	if model == "" {
		http.Error(w, "modelo is required", http.StatusBadRequest)
		return
	}
	data := h.catalog.LookupWithSerial(model, q.Get("serie"))
	if data == nil {
		http.Error(w, "Model not found in catalog", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Intervals returns the base PM intervals.
func (h *CatalogHandler) Intervals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Intervals())
}

// Aliases returns every catalog model with its alternative names.
func (h *CatalogHandler) Aliases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Aliases())
}
