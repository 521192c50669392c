package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/catalog"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

type stubCatalog struct {
	data *catalog.EquipmentData
}

func (s stubCatalog) LookupWithSerial(model, serial string) *catalog.EquipmentData {
	if model == "320" {
		return s.data
	}
	return nil
}

func (s stubCatalog) Intervals() []catalog.Interval {
	return []catalog.Interval{{Code: "PM1", Hours: 250}}
}

func (s stubCatalog) Aliases() []catalog.ModelAliases {
	return []catalog.ModelAliases{{Model: "320", Aliases: []string{"320D"}}}
}

func TestCatalogHandler(t *testing.T) {
	h := NewCatalogHandler(stubCatalog{data: &catalog.EquipmentData{Model: &catalog.Model{Name: "320"}}})

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"known model", "/?modelo=320&serie=ABC", http.StatusOK},
		{"unknown model", "/?modelo=999", http.StatusNotFound},
		{"missing model", "/", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Equipment(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}

	w := httptest.NewRecorder()
	h.Intervals(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), `"codigo":"PM1"`)

	w = httptest.NewRecorder()
	h.Aliases(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), "320D")
}

func TestSession(t *testing.T) {
	t.Run("supervisor is read-only", func(t *testing.T) {
		req := withClaims(httptest.NewRequest(http.MethodGet, "/", nil), primitive.NewObjectID(), models.RoleSupervisor)
		w := httptest.NewRecorder()
		Session(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got sessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.IsSupervisor)
		assert.True(t, got.ReadOnly)
		assert.False(t, got.IsAdmin)
		assert.Equal(t, middleware.DeviceDesktop, got.Device)
		assert.Equal(t, []models.Permission{models.PermRead}, got.Permissions[models.ModuleMaintenance])
		assert.NotContains(t, got.Permissions, models.ModuleAdmin)
	})

	t.Run("mobile mechanic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		req = withClaims(req, primitive.NewObjectID(), models.RoleMechanic)
		w := httptest.NewRecorder()
		middleware.Device(http.HandlerFunc(Session)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got sessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.IsMechanic)
		assert.True(t, got.IsMobile)
		assert.False(t, got.ReadOnly)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		Session(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(PingerFunc(func(context.Context) error { return nil })).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	Health(PingerFunc(func(context.Context) error { return errors.New("no servers") })).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unreachable")
}
