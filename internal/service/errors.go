package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"topneum/internal/repository"
)

// Error kinds surfaced to the HTTP layer. Use errors.Is to classify.
var (
	ErrInvalidInput       = errors.New("entrada invalida")
	ErrNotFound           = errors.New("no encontrado")
	ErrProductNotFound    = errors.New("producto no encontrado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrConflictingPublish = errors.New("publicacion concurrente de tarifa")
	// ErrStorage means the outcome is unknown or the store failed; nothing the
	// caller sent was wrong.
	ErrStorage = errors.New("error de almacenamiento")
)

// ValidacionError lists every offending field.
type ValidacionError struct {
	Campos map[string]string
}

func (e *ValidacionError) Error() string {
	keys := make([]string, 0, len(e.Campos))
	for k := range e.Campos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Campos[k])
	}
	return "entrada invalida: " + strings.Join(parts, "; ")
}

func (e *ValidacionError) Is(target error) bool { return target == ErrInvalidInput }

func invalido(campo, msg string) error {
	return &ValidacionError{Campos: map[string]string{campo: msg}}
}

// Faltante describes one product that cannot cover the requested quantity.
type Faltante struct {
	ProductoID string
	Codigo     string
	Solicitado int
	Disponible *int
}

// StockInsuficienteError lists every short product, not just the first.
type StockInsuficienteError struct {
	Faltantes []Faltante
}

func (e *StockInsuficienteError) Error() string {
	parts := make([]string, 0, len(e.Faltantes))
	for _, f := range e.Faltantes {
		disp := "?"
		if f.Disponible != nil {
			disp = fmt.Sprint(*f.Disponible)
		}
		parts = append(parts, fmt.Sprintf("%s (solicitado %d, disponible %s)", f.Codigo, f.Solicitado, disp))
	}
	return "stock insuficiente: " + strings.Join(parts, ", ")
}

func (e *StockInsuficienteError) Is(target error) bool { return target == ErrInsufficientStock }

// ProductoNoEncontradoError lists ids that do not exist or are inactive.
type ProductoNoEncontradoError struct {
	IDs []string
}

func (e *ProductoNoEncontradoError) Error() string {
	return "producto no encontrado: " + strings.Join(e.IDs, ", ")
}

func (e *ProductoNoEncontradoError) Is(target error) bool { return target == ErrProductNotFound }

// clasificar maps repository and driver errors to the kinds above. Errors that
// already carry a kind pass through untouched.
func clasificar(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConflictingPublish),
		errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: resultado desconocido: %v", ErrStorage, err)
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}
