package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isCheckViolation CHECK (stock_quantity >= 0, balance >= 0, ...) (23514).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// insertErr traduce errores de INSERT a errores de dominio.
func insertErr(what, id string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s %s ya existe", domain.ErrConflict, what, id)
	}
	if isCheckViolation(err) {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrValidation, what, id, err)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}

// noRows convierte pgx.ErrNoRows en (nil, nil), el contrato de los GetBy*.
func noRows[T any](v *T, err error, what string) (*T, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return v, nil
}

func toJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// actorJSON nil para actores opcionales ausentes (columna NULL).
func actorJSON(a *entity.Actor) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func actorFromJSON(raw []byte) (*entity.Actor, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a entity.Actor
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decodificar actor: %w", err)
	}
	return &a, nil
}

func limitOffset(page repository.Page) (int, int) {
	p := page.Normalize()
	return p.Limit, p.Offset
}

// nullable devuelve nil para el string vacío (columna NULL en filtros opcionales).
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
