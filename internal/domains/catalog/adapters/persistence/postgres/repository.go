package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hcustod/inventory-management-system/internal/domains/catalog/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	platformpostgres "github.com/hcustod/inventory-management-system/internal/platform/postgres"
	"github.com/hcustod/inventory-management-system/internal/shared/projection"
)

var (
	_ ports.CategoryRepository = (*CategoryRepository)(nil)
	_ ports.ProductRepository  = (*ProductRepository)(nil)
)

// categoryRecord maps the category aggregate to a relational table.
type categoryRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	Version     int64     `gorm:"column:version"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (categoryRecord) TableName() string { return "categories" }

// productRecord maps the product aggregate to a relational table.
type productRecord struct {
	ID                int64           `gorm:"primaryKey;column:id"`
	Name              string          `gorm:"column:name"`
	Description       string          `gorm:"column:description"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	StockAmount       int             `gorm:"column:stock_amount"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold"`
	CategoryID        int64           `gorm:"column:category_id"`
	Version           int64           `gorm:"column:version"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// CategoryRepository persists categories in PostgreSQL using GORM.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs migrations.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*ports.CategoryProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if category == nil {
		return nil, errors.New("category is nil")
	}
	record := categoryRecord{Name: category.Name, Description: category.Description, Version: 1}
	if err := platformpostgres.Conn(ctx, r.db).Create(&record).Error; err != nil {
		if platformpostgres.IsUniqueViolation(err) {
			return nil, ports.ErrDuplicateCategoryName
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// Update writes the category only if nobody bumped its version since it was read.
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category, expectedVersion int64) (*ports.CategoryProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if category == nil {
		return nil, errors.New("category is nil")
	}
	result := platformpostgres.Conn(ctx, r.db).
		Model(&categoryRecord{}).
		Where("id = ? AND version = ?", category.ID, expectedVersion).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		if platformpostgres.IsUniqueViolation(result.Error) {
			return nil, ports.ErrDuplicateCategoryName
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrConcurrentModification
	}
	return r.GetByID(ctx, category.ID)
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := platformpostgres.Conn(ctx, r.db).Delete(&categoryRecord{}, id)
	if result.Error != nil {
		if platformpostgres.IsForeignKeyViolation(result.Error) {
			return ports.ErrCategoryHasProducts
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*ports.CategoryProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record categoryRecord
	if err := platformpostgres.Conn(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCategoryNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*ports.CategoryProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []categoryRecord
	if err := platformpostgres.Conn(ctx, r.db).Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]*ports.CategoryProjection, 0, len(records))
	for i := range records {
		list = append(list, records[i].toProjection())
	}
	return list, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*ports.CategoryProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record categoryRecord
	err := platformpostgres.Conn(ctx, r.db).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCategoryNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

func (r *CategoryRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres category repository not configured")
	}
	return nil
}

func (r categoryRecord) toProjection() *ports.CategoryProjection {
	return projection.New(&domain.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
	}, projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version})
}

// ProductRepository persists products in PostgreSQL using GORM.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) (*ports.ProductProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record := toProductRecord(product)
	record.ID = 0
	record.Version = 1
	if err := platformpostgres.Conn(ctx, r.db).Create(&record).Error; err != nil {
		if platformpostgres.IsForeignKeyViolation(err) {
			return nil, ports.ErrCategoryNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product, expectedVersion int64) (*ports.ProductProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	result := platformpostgres.Conn(ctx, r.db).
		Model(&productRecord{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Updates(map[string]any{
			"name":                product.Name,
			"description":         product.Description,
			"price":               product.Price,
			"stock_amount":        product.StockAmount,
			"low_stock_threshold": product.LowStockThreshold,
			"category_id":         product.CategoryID,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		if platformpostgres.IsForeignKeyViolation(result.Error) {
			return nil, ports.ErrCategoryNotFound
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrConcurrentModification
	}
	return r.GetByID(ctx, product.ID)
}

// Delete removes a product; order lines referencing it make the store reject the delete.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := platformpostgres.Conn(ctx, r.db).Delete(&productRecord{}, id)
	if result.Error != nil {
		if platformpostgres.IsForeignKeyViolation(result.Error) {
			return ports.ErrProductReferenced
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*ports.ProductProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := platformpostgres.Conn(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

func (r *ProductRepository) List(ctx context.Context, query domain.ProductQuery) ([]*ports.ProductProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	tx := platformpostgres.Conn(ctx, r.db).Model(&productRecord{})
	if search := strings.TrimSpace(query.Search); search != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	if query.CategoryID != nil {
		tx = tx.Where("category_id = ?", *query.CategoryID)
	}
	if query.MinPrice != nil {
		tx = tx.Where("price >= ?", *query.MinPrice)
	}
	if query.MaxPrice != nil {
		tx = tx.Where("price <= ?", *query.MaxPrice)
	}
	if query.LowStockOnly {
		tx = tx.Where("stock_amount < low_stock_threshold")
	}
	var records []productRecord
	if err := tx.Order(orderClause(query.SortBy)).Find(&records).Error; err != nil {
		return nil, err
	}
	return toProductProjections(records), nil
}

func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var count int64
	err := platformpostgres.Conn(ctx, r.db).Model(&productRecord{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// LockForUpdate reads the products with SELECT ... FOR UPDATE, in id order so concurrent
// orders acquire row locks consistently.
func (r *ProductRepository) LockForUpdate(ctx context.Context, ids []int64) (map[int64]*ports.ProductProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := make(map[int64]*ports.ProductProjection, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var records []productRecord
	err := platformpostgres.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	for i := range records {
		result[records[i].ID] = records[i].toProjection()
	}
	return result, nil
}

// DeductStock is a conditional update: it only matches while enough stock remains, so the
// check and the write happen in one statement.
func (r *ProductRepository) DeductStock(ctx context.Context, id int64, quantity int, at time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if quantity <= 0 {
		return domain.ErrInvalidStockMovement
	}
	conn := platformpostgres.Conn(ctx, r.db)
	result := conn.Model(&productRecord{}).
		Where("id = ? AND stock_amount >= ?", id, quantity).
		Updates(map[string]any{
			"stock_amount": gorm.Expr("stock_amount - ?", quantity),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := conn.Model(&productRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrProductNotFound
	}
	return ports.ErrInsufficientStock
}

// LowStockReport lists products below their threshold, optionally limited to categories.
// It relies on PostgreSQL array parameters and is not portable to other dialects.
func (r *ProductRepository) LowStockReport(ctx context.Context, categoryIDs []int64) ([]*ports.ProductProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	tx := platformpostgres.Conn(ctx, r.db).Where("stock_amount < low_stock_threshold")
	if len(categoryIDs) > 0 {
		tx = tx.Where("category_id = ANY(?)", pq.Array(categoryIDs))
	}
	var records []productRecord
	if err := tx.Order("category_id ASC, stock_amount ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return toProductProjections(records), nil
}

func (r *ProductRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func orderClause(field domain.SortField) string {
	switch field {
	case domain.SortPrice:
		return "price ASC, id ASC"
	case domain.SortQuantity:
		return "stock_amount ASC, id ASC"
	case domain.SortName:
		return "name ASC, id ASC"
	default:
		return "id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		StockAmount:       p.StockAmount,
		LowStockThreshold: p.LowStockThreshold,
		CategoryID:        p.CategoryID,
	}
}

func (r productRecord) toProjection() *ports.ProductProjection {
	return projection.New(&domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Price:             r.Price,
		StockAmount:       r.StockAmount,
		LowStockThreshold: r.LowStockThreshold,
		CategoryID:        r.CategoryID,
	}, projection.Metadata{CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version})
}

func toProductProjections(records []productRecord) []*ports.ProductProjection {
	list := make([]*ports.ProductProjection, 0, len(records))
	for i := range records {
		list = append(list, records[i].toProjection())
	}
	return list
}
