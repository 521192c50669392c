package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleMechanic   Role = "mechanic"
	RoleUser       Role = "user"
)

// Module identifies an area of the application that permissions are granted on.
type Module string

const (
	ModuleDashboard   Module = "dashboard"
	ModuleEquipment   Module = "equipos"
	ModuleMaintenance Module = "mantenimiento"
	ModulePlanner     Module = "planificador"
	ModuleKits        Module = "kits"
	ModuleHistory     Module = "historial"
	ModuleReports     Module = "reportes"
	ModuleAdmin       Module = "admin"
)

// Permission is an access level on a module.
type Permission string

const (
	PermRead   Permission = "read"
	PermWrite  Permission = "write"
	PermDelete Permission = "delete"
	PermAdmin  Permission = "admin"
)

var allPermissions = []Permission{PermRead, PermWrite, PermDelete, PermAdmin}

// rolePermissions is the default permission matrix. Admins are handled separately.
var rolePermissions = map[Role]map[Module][]Permission{
	RoleSupervisor: {
		ModuleDashboard:   {PermRead},
		ModuleEquipment:   {PermRead},
		ModuleMaintenance: {PermRead},
		ModulePlanner:     {PermRead},
		ModuleKits:        {PermRead},
		ModuleHistory:     {PermRead},
		ModuleReports:     {PermRead},
	},
	RoleMechanic: {
		ModuleDashboard:   {PermRead},
		ModuleEquipment:   {PermRead},
		ModuleMaintenance: {PermRead, PermWrite},
		ModuleHistory:     {PermRead},
	},
	RoleUser: {
		ModuleDashboard:   {PermRead},
		ModuleEquipment:   {PermRead},
		ModuleMaintenance: {PermRead},
		ModulePlanner:     {PermRead},
		ModuleKits:        {PermRead},
		ModuleHistory:     {PermRead},
		ModuleReports:     {PermRead},
	},
}

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the name recorded as responsible user on readings.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a self-service registration. New accounts get RoleUser.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RoleUpdateRequest assigns a new role to an existing user.
type RoleUpdateRequest struct {
	Role Role `json:"role" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleMechanic, RoleUser:
		return true
	default:
		return false
	}
}

// HasPermission reports whether the role grants perm on module.
func (r Role) HasPermission(module Module, perm Permission) bool {
	if r == RoleAdmin {
		return true
	}
	for _, p := range rolePermissions[r][module] {
		if p == perm {
			return true
		}
	}
	return false
}

// Permissions lists every permission the role holds on module.
func (r Role) Permissions(module Module) []Permission {
	if r == RoleAdmin {
		return append([]Permission(nil), allPermissions...)
	}
	return append([]Permission(nil), rolePermissions[r][module]...)
}

// ReadOnly reports whether the role may look at maintenance data but not change it.
func (r Role) ReadOnly() bool {
	return r.HasPermission(ModuleMaintenance, PermRead) && !r.HasPermission(ModuleMaintenance, PermWrite)
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(module Module, perm Permission) bool {
	return u.Role.HasPermission(module, perm)
}
