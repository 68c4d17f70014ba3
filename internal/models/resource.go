package models

// ResourceSpec describes one table exposed through the generic CRUD surface.
// Columns is the filter/order/payload allow-list; anything outside it is
// silently dropped from filters and rejected from payloads.
type ResourceSpec struct {
	Name       string
	Table      string
	PrimaryKey string
	SoftDelete bool
	Columns    []string
}

// HasColumn reports whether the column is allow-listed for the resource.
func (s ResourceSpec) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// DefaultResourceRegistry is the single authoritative resource allow-list.
// SoftDelete membership decides whether DELETE flips the active flag or
// removes the row; both backend transports consult this one set.
func DefaultResourceRegistry() map[string]ResourceSpec {
	specs := []ResourceSpec{
		{
			Name:       "grades",
			Table:      "grades",
			PrimaryKey: "id",
			Columns:    []string{"id", "name", "level"},
		},
		{
			Name:       "roles",
			Table:      "roles",
			PrimaryKey: "id",
			Columns:    []string{"id", "name", "description"},
		},
		{
			Name:       "permissions",
			Table:      "permissions",
			PrimaryKey: "id",
			Columns:    []string{"id", "module", "action", "nav_link", "nav_icon"},
		},
		{
			Name:       "role-permissions",
			Table:      "role_permissions",
			PrimaryKey: "id",
			Columns:    []string{"id", "role_id", "permission_id"},
		},
		{
			Name:       "user-roles",
			Table:      "user_roles",
			PrimaryKey: "id",
			Columns:    []string{"id", "user_id", "role_id"},
		},
		{
			Name:       "users",
			Table:      "users",
			PrimaryKey: "id",
			SoftDelete: true,
			Columns:    []string{"id", "auth_id", "email", "full_name", "phone", "avatar_url", "active"},
		},
		{
			Name:       "guardians",
			Table:      "guardians",
			PrimaryKey: "id",
			Columns:    []string{"id", "user_id", "full_name", "relationship", "phone", "address"},
		},
	}

	registry := make(map[string]ResourceSpec, len(specs))
	for _, spec := range specs {
		registry[spec.Name] = spec
	}
	return registry
}
