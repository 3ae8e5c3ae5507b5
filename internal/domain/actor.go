package domain

import "fmt"

// Role identifies the kind of party performing an action.
type Role string

const (
	RoleUser   Role = "user"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleDriver, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor is the resolved identity behind a request.
type Actor struct {
	Role Role
	ID   int64
}

// UserActor returns an Actor for the given user id.
func UserActor(id int64) Actor { return Actor{Role: RoleUser, ID: id} }

// DriverActor returns an Actor for the given driver id.
func DriverActor(id int64) Actor { return Actor{Role: RoleDriver, ID: id} }

// AdminActor returns an Actor for the given admin id.
func AdminActor(id int64) Actor { return Actor{Role: RoleAdmin, ID: id} }

// SystemActor is used for actions not triggered by a person.
var SystemActor = Actor{Role: RoleSystem}

func (a Actor) IsUser() bool   { return a.Role == RoleUser }
func (a Actor) IsDriver() bool { return a.Role == RoleDriver }
func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }

// Is reports whether a is the given role with the given id.
func (a Actor) Is(role Role, id int64) bool {
	return a.Role == role && a.ID == id && id > 0
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%d", a.Role, a.ID)
}
