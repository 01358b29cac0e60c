package repository

import (
	"context"

	"topneum/internal/dto"
	"topneum/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)

	// Muestra returns up to n random active products with a positive cost.
	Muestra(ctx context.Context, n int) ([]model.Producto, error)

	// Used inside transactions; callers must pass the tx instance
	LockForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Producto, error)
	FindForUpdateTx(tx *gorm.DB, id *uuid.UUID, codigo *string) (*model.Producto, error)
	DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) error
	SumarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) error
	SetStockTx(tx *gorm.DB, id uuid.UUID, stock *int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return traducir(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, traducir(err)
	}
	return &p, nil
}

func (r *productoRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Producto, error) {
	var p model.Producto
	if err := r.db.WithContext(ctx).Where("codigo = ? AND activo = true", codigo).First(&p).Error; err != nil {
		return nil, traducir(err)
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
	default:
		q = q.Where("activo = true")
	}

	if filter.Codigo != "" {
		q = q.Where("codigo = ?", filter.Codigo)
	}
	if filter.Marca != "" {
		q = q.Where("marca ILIKE ?", "%"+filter.Marca+"%")
	}
	if filter.Medida != "" {
		q = q.Where("medida = ?", filter.Medida)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("marca ASC, medida ASC, codigo ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Muestra(ctx context.Context, n int) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = true AND costo > 0").
		Order("random()").
		Limit(n).
		Find(&productos).Error
	return productos, err
}

// LockForUpdateTx locks the given rows in id order so that concurrent orders
// touching overlapping products always acquire locks in the same sequence.
// Missing or inactive ids are simply absent from the result.
func (r *productoRepo) LockForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND activo = true", ids).
		Order("id").
		Find(&productos).Error
	return productos, err
}

// FindForUpdateTx locks a single product by id or, when id is nil, by codigo.
func (r *productoRepo) FindForUpdateTx(tx *gorm.DB, id *uuid.UUID, codigo *string) (*model.Producto, error) {
	var p model.Producto
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	if id != nil {
		q = q.Where("id = ?", *id)
	} else {
		q = q.Where("codigo = ?", *codigo)
	}
	if err := q.First(&p).Error; err != nil {
		return nil, traducir(err)
	}
	return &p, nil
}

// DescontarStockTx decrements stock only if enough units remain. Rows with
// unlimited stock (NULL) are left untouched.
func (r *productoRepo) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) error {
	res := tx.Model(&model.Producto{}).
		Where("id = ? AND (stock IS NULL OR stock >= ?)", id, cantidad).
		Update("stock", gorm.Expr("CASE WHEN stock IS NULL THEN NULL ELSE stock - ? END", cantidad))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockInsuficiente
	}
	return nil
}

func (r *productoRepo) SumarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) error {
	return tx.Model(&model.Producto{}).
		Where("id = ? AND stock IS NOT NULL", id).
		Update("stock", gorm.Expr("stock + ?", cantidad)).Error
}

func (r *productoRepo) SetStockTx(tx *gorm.DB, id uuid.UUID, stock *int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).Update("stock", stock).Error
}
