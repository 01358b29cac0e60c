package repository

import (
	"context"
	"time"

	"topneum/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// publicacionLockKey serializes publishes across connections.
const publicacionLockKey int64 = 0x746172696661 // "tarifa"

type TarifaRepository interface {
	Create(ctx context.Context, t *model.Tarifa) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tarifa, error)
	FindActiva(ctx context.Context) (*model.Tarifa, error)
	List(ctx context.Context) ([]model.Tarifa, error)
	Update(ctx context.Context, id uuid.UUID, campos map[string]interface{}) (*model.Tarifa, error)

	// Used inside the publish transaction; callers must pass the tx instance
	CreateTx(tx *gorm.DB, t *model.Tarifa) error
	LockPublicacionTx(tx *gorm.DB) error
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Tarifa, error)
	DesactivarVigentesTx(tx *gorm.DB, exceptoID uuid.UUID, hoy time.Time) error
	ActivarTx(tx *gorm.DB, id uuid.UUID, hoy time.Time) error

	DB() *gorm.DB
}

type tarifaRepo struct{ db *gorm.DB }

func NewTarifaRepository(db *gorm.DB) TarifaRepository { return &tarifaRepo{db: db} }

func (r *tarifaRepo) DB() *gorm.DB { return r.db }

func (r *tarifaRepo) Create(ctx context.Context, t *model.Tarifa) error {
	return traducir(r.db.WithContext(ctx).Create(t).Error)
}

func (r *tarifaRepo) CreateTx(tx *gorm.DB, t *model.Tarifa) error {
	return traducir(tx.Create(t).Error)
}

func (r *tarifaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tarifa, error) {
	var t model.Tarifa
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, traducir(err)
	}
	return &t, nil
}

func (r *tarifaRepo) FindActiva(ctx context.Context) (*model.Tarifa, error) {
	var t model.Tarifa
	if err := r.db.WithContext(ctx).Where("activa = true").First(&t).Error; err != nil {
		return nil, traducir(err)
	}
	return &t, nil
}

func (r *tarifaRepo) List(ctx context.Context) ([]model.Tarifa, error) {
	var tarifas []model.Tarifa
	err := r.db.WithContext(ctx).Order("activa DESC, created_at DESC").Find(&tarifas).Error
	return tarifas, err
}

// Update applies a partial update and returns the fresh row. The activa flag
// and validity dates are never accepted here.
func (r *tarifaRepo) Update(ctx context.Context, id uuid.UUID, campos map[string]interface{}) (*model.Tarifa, error) {
	delete(campos, "activa")
	delete(campos, "vigente_desde")
	delete(campos, "vigente_hasta")

	var t model.Tarifa
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Tarifa{}).Where("id = ?", id).Updates(campos)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&t, "id = ?", id).Error
	})
	if err != nil {
		return nil, traducir(err)
	}
	return &t, nil
}

// LockPublicacionTx takes a transaction-scoped advisory lock, released on
// commit or rollback.
func (r *tarifaRepo) LockPublicacionTx(tx *gorm.DB) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", publicacionLockKey).Error
}

func (r *tarifaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Tarifa, error) {
	var t model.Tarifa
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, traducir(err)
	}
	return &t, nil
}

func (r *tarifaRepo) DesactivarVigentesTx(tx *gorm.DB, exceptoID uuid.UUID, hoy time.Time) error {
	return tx.Model(&model.Tarifa{}).
		Where("activa = true AND id <> ?", exceptoID).
		Updates(map[string]interface{}{"activa": false, "vigente_hasta": hoy}).Error
}

func (r *tarifaRepo) ActivarTx(tx *gorm.DB, id uuid.UUID, hoy time.Time) error {
	err := tx.Model(&model.Tarifa{}).Where("id = ?", id).
		Updates(map[string]interface{}{"activa": true, "vigente_desde": hoy, "vigente_hasta": nil}).Error
	return traducir(err)
}
