package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var sessionModules = []models.Module{
	models.ModuleDashboard,
	models.ModuleEquipment,
	models.ModuleMaintenance,
	models.ModulePlanner,
	models.ModuleKits,
	models.ModuleHistory,
	models.ModuleReports,
	models.ModuleAdmin,
}

// sessionResponse tells the client which controls to render for the caller.
type sessionResponse struct {
	Username     string                                `json:"username"`
	Role         models.Role                           `json:"role"`
	IsAdmin      bool                                  `json:"isAdmin"`
	IsSupervisor bool                                  `json:"isSupervisor"`
	IsMechanic   bool                                  `json:"isMechanic"`
	ReadOnly     bool                                  `json:"readOnly"`
	IsMobile     bool                                  `json:"isMobile"`
	Device       middleware.DeviceType                 `json:"device"`
	Permissions  map[models.Module][]models.Permission `json:"permissions"`
}

// Session describes the caller's role, permissions and device class.
func Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	perms := make(map[models.Module][]models.Permission, len(sessionModules))
	for _, module := range sessionModules {
		if p := claims.Role.Permissions(module); len(p) > 0 {
			perms[module] = p
		}
	}

	device := middleware.GetDevice(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		Username:     claims.Username,
		Role:         claims.Role,
		IsAdmin:      claims.Role == models.RoleAdmin,
		IsSupervisor: claims.Role == models.RoleSupervisor,
		IsMechanic:   claims.Role == models.RoleMechanic,
		ReadOnly:     claims.Role.ReadOnly(),
		IsMobile:     device == middleware.DeviceMobile,
		Device:       device,
		Permissions:  perms,
	})
}
