package entity

// Role is an authorization role. It is set at creation and changed only by an
// explicit admin action, never by login or account linking.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
	RoleUser     Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResident, RoleUser:
		return true
	}
	return false
}
