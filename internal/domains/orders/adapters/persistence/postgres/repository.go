package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hcustod/inventory-management-system/internal/domains/orders/domain"
	"github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	platformpostgres "github.com/hcustod/inventory-management-system/internal/platform/postgres"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Calls join the transaction carried
// by ctx, if any.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and
// runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order header to a relational table.
type orderRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	OrderDate  time.Time       `gorm:"column:order_date"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:decimal(12,2)"`
	UserName   string          `gorm:"column:user_name"`
	UserEmail  string          `gorm:"column:user_email"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	OrderID   int64 `gorm:"primaryKey;column:order_id;autoIncrement:false"`
	ProductID int64 `gorm:"primaryKey;column:product_id;autoIncrement:false"`
	Quantity  int   `gorm:"column:quantity"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// lineRow is an order line joined with its product, read in the child to parent direction.
type lineRow struct {
	OrderID     int64
	ProductID   int64
	Quantity    int
	ProductName string
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := orderRecord{
		OrderDate:  order.OrderDate,
		TotalPrice: order.TotalPrice,
		UserName:   order.UserName,
		UserEmail:  order.UserEmail,
	}
	if err := platformpostgres.Conn(ctx, r.db).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) AddLines(ctx context.Context, orderID int64, lines []domain.Line) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	records := make([]orderLineRecord, 0, len(lines))
	for _, line := range lines {
		records = append(records, orderLineRecord{OrderID: orderID, ProductID: line.ProductID, Quantity: line.Quantity})
	}
	if err := platformpostgres.Conn(ctx, r.db).Create(&records).Error; err != nil {
		if platformpostgres.IsForeignKeyViolation(err) {
			return ports.ErrProductNotFound
		}
		return err
	}
	return nil
}

func (r *Repository) SetTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := platformpostgres.Conn(ctx, r.db).
		Model(&orderRecord{}).
		Where("id = ?", orderID).
		Update("total_price", total)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := platformpostgres.Conn(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders := []*domain.Order{record.toDomain()}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *Repository) List(ctx context.Context, query domain.OrderQuery) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	tx := platformpostgres.Conn(ctx, r.db).Model(&orderRecord{})
	if search := strings.TrimSpace(query.Search); search != "" {
		tx = tx.Where("LOWER(user_name) LIKE ? ESCAPE '\\'", containsPattern(search))
	}
	if email := strings.TrimSpace(query.Email); email != "" {
		tx = tx.Where("LOWER(user_email) LIKE ? ESCAPE '\\'", containsPattern(email))
	}
	if query.OrderDate != nil {
		start, end := domain.DayBounds(*query.OrderDate)
		tx = tx.Where("order_date >= ? AND order_date < ?", start, end)
	}
	var records []orderRecord
	if err := tx.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Delete removes the lines first, then the header.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	conn := platformpostgres.Conn(ctx, r.db)
	if err := conn.Where("order_id = ?", id).Delete(&orderLineRecord{}).Error; err != nil {
		return err
	}
	result := conn.Delete(&orderRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ReferencesProduct(ctx context.Context, productID int64) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := platformpostgres.Conn(ctx, r.db).Model(&orderLineRecord{}).Where("product_id = ?", productID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) attachLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}
	var rows []lineRow
	err := platformpostgres.Conn(ctx, r.db).
		Table("order_lines AS l").
		Select("l.order_id, l.product_id, l.quantity, p.name AS product_name").
		Joins("JOIN products p ON p.id = l.product_id").
		Where("l.order_id IN ?", ids).
		Order("l.order_id ASC, l.product_id ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		order, ok := byID[row.OrderID]
		if !ok {
			continue
		}
		order.Lines = append(order.Lines, domain.Line{
			ProductID:   row.ProductID,
			Quantity:    row.Quantity,
			ProductName: row.ProductName,
		})
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:         r.ID,
		OrderDate:  r.OrderDate,
		TotalPrice: r.TotalPrice,
		UserName:   r.UserName,
		UserEmail:  r.UserEmail,
	}
}
