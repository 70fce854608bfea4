package repository

// Page paginación limit/offset para listados.
type Page struct {
	Limit  int
	Offset int
}

// Normalize aplica límites por defecto.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
