package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fizyostok/stok-api/internal/domain"
)

// Códigos SQLSTATE usados.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	if code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// mapError traduce errores de pgx a errores de dominio. Lo no reconocido se propaga
// como TransportError con el mensaje original del backend.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	code, _ := pgCode(err)
	switch code {
	case codeUniqueViolation:
		return domain.ErrDuplicate
	case codeForeignKeyViolation, codeInvalidText:
		// Referencia a una fila inexistente o id mal formado: para el dueño, no existe.
		return domain.ErrNotFound
	}
	return domain.Transport(op, err)
}
