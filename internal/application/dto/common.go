package dto

import (
	"time"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=200"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ToPage convierte a la paginación de los repositorios.
func (p PageRequest) ToPage() repository.Page {
	return repository.Page{Limit: p.Limit, Offset: p.Offset}.Normalize()
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// NewPageResponse metadatos de la página devuelta.
func NewPageResponse(p repository.Page, count int) PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset, Total: count}
}

// ListResponse lista paginada genérica.
type ListResponse[T any] struct {
	Items []T          `json:"items"`
	Page  PageResponse `json:"page"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Details *ShortfallDetail `json:"details,omitempty"`
}

// ShortfallDetail producto sin stock suficiente y cuánto falta.
type ShortfallDetail struct {
	ProductID string `json:"product_id"`
	Requested string `json:"requested"`
	Available string `json:"available"`
	Shortfall string `json:"shortfall"`
}

// ActorResponse actor tal como viaja en eventos y documentos.
type ActorResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

func actorResponse(a entity.Actor) ActorResponse {
	return ActorResponse{ID: a.ID, Role: a.Role, Name: a.Name}
}

func actorPtr(a *entity.Actor) *ActorResponse {
	if a == nil {
		return nil
	}
	r := actorResponse(*a)
	return &r
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// MapList aplica fn a cada elemento.
func MapList[E any, R any](in []E, fn func(E) R) []R {
	out := make([]R, 0, len(in))
	for _, e := range in {
		out = append(out, fn(e))
	}
	return out
}
