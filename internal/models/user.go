package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents an application user provisioned from the external identity
// platform. AuthID is the subject claim of the externally issued token.
type User struct {
	ID        string    `db:"id" json:"id"`
	AuthID    string    `db:"auth_id" json:"auth_id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Role groups a named permission set.
type Role struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// Well-known role names. Permission checks short-circuit for admins.
const (
	RoleNameAdmin   = "admin"
	RoleNameTeacher = "teacher"
	RoleNameStaff   = "staff"
	RoleNameParent  = "parent"
)

// Permission is a module+action pair with optional navigation metadata used
// by the admin console to build its menu.
type Permission struct {
	ID      string  `db:"id" json:"id"`
	Module  string  `db:"module" json:"module"`
	Action  string  `db:"action" json:"action"`
	NavLink *string `db:"nav_link" json:"nav_link,omitempty"`
	NavIcon *string `db:"nav_icon" json:"nav_icon,omitempty"`
}

// Key renders the flattened "module:action" permission string.
func (p Permission) Key() string {
	return p.Module + ":" + p.Action
}

// UserProfile is the fully resolved request identity: user row, role names
// and the flattened permission set. It is rebuilt on every request.
type UserProfile struct {
	User        User         `json:"user"`
	Roles       []string     `json:"roles"`
	Permissions []Permission `json:"permissions"`
}

// HasRole reports whether the profile carries the named role.
func (p *UserProfile) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the profile grants module:action. Admins are
// granted everything.
func (p *UserProfile) HasPermission(module, action string) bool {
	if p.HasRole(RoleNameAdmin) {
		return true
	}
	for _, perm := range p.Permissions {
		if perm.Module == module && perm.Action == action {
			return true
		}
	}
	return false
}

// AuthClaims are the claims carried by the externally issued session token.
type AuthClaims struct {
	Email     string `json:"email"`
	FullName  string `json:"name"`
	AvatarURL string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
