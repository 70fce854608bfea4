package entity

// Roles de los actores que disparan operaciones del núcleo.
const (
	RoleEmployee = "employee"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RoleSystem   = "system"
)

// Actor identifica a quien ejecuta una operación (se copia tal cual en eventos y movimientos).
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// SystemActor actor usado por procesos internos (reconciliación, relay).
var SystemActor = Actor{ID: "system", Role: RoleSystem, Name: "system"}

// IsZero indica si el actor no fue informado.
func (a Actor) IsZero() bool {
	return a.ID == ""
}
