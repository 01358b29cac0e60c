package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by the Find* methods when no row matches.
	ErrNotFound = errors.New("registro no encontrado")
	// ErrDuplicado wraps a unique constraint violation.
	ErrDuplicado = errors.New("registro duplicado")
	// ErrStockInsuficiente is returned by the guarded decrement when the row
	// no longer has enough units.
	ErrStockInsuficiente = errors.New("stock insuficiente")
)

// traducir maps GORM sentinels to repository sentinels. The database is opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func traducir(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicado, err)
	default:
		return err
	}
}
