package migrations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own;
// the records below carry the constraints (foreign keys, checks, indexes) the adapters rely on.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(
		&categoryRecord{},
		&productRecord{},
		&orderRecord{},
		&orderLineRecord{},
		&orderIdempotencyRecord{},
		&apiTokenRecord{},
	); err != nil {
		return err
	}
	// Category names are unique ignoring case.
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_lower ON categories (LOWER(name))").Error
}

// Category schema mirrors the catalog Postgres adapter.
type categoryRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name;type:varchar(100);not null"`
	Description string    `gorm:"column:description;type:text"`
	Version     int64     `gorm:"column:version;not null;default:1"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (categoryRecord) TableName() string { return "categories" }

// Product schema mirrors the catalog Postgres adapter.
type productRecord struct {
	ID                int64           `gorm:"primaryKey;column:id"`
	Name              string          `gorm:"column:name;type:varchar(150);not null;index"`
	Description       string          `gorm:"column:description;type:text;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null;check:chk_products_price,price >= 0"`
	StockAmount       int             `gorm:"column:stock_amount;not null;check:chk_products_stock_amount,stock_amount >= 0"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null;default:0"`
	CategoryID        int64           `gorm:"column:category_id;not null;index"`
	Category          categoryRecord  `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Version           int64           `gorm:"column:version;not null;default:1"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;index"`
}

func (productRecord) TableName() string { return "products" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	OrderDate  time.Time       `gorm:"column:order_date;not null;index"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:decimal(12,2);not null;default:0"`
	UserName   string          `gorm:"column:user_name;type:varchar(100);not null;index"`
	UserEmail  string          `gorm:"column:user_email;type:varchar(150);not null;index"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Order line schema: one row per (order, product), referencing both with RESTRICT so
// products that appear in orders cannot be deleted.
type orderLineRecord struct {
	OrderID   int64         `gorm:"primaryKey;column:order_id;autoIncrement:false"`
	ProductID int64         `gorm:"primaryKey;column:product_id;autoIncrement:false;index"`
	Quantity  int           `gorm:"column:quantity;not null;check:chk_order_lines_quantity,quantity > 0"`
	Order     orderRecord   `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	Product   productRecord `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Idempotency keys reference the order they replay and are removed with it.
type orderIdempotencyRecord struct {
	Key         string      `gorm:"primaryKey;column:idempotency_key;size:255"`
	RequestHash string      `gorm:"column:request_hash;size:64;not null"`
	OrderID     int64       `gorm:"column:order_id;not null;index"`
	Order       orderRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `gorm:"column:created_at;index"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }

// API token schema mirrors the identity token store.
type apiTokenRecord struct {
	Token     string     `gorm:"primaryKey;column:token;size:512"`
	Subject   string     `gorm:"column:subject;index"`
	Name      string     `gorm:"column:name"`
	Email     string     `gorm:"column:email"`
	Roles     string     `gorm:"column:roles"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at;index"`
}

func (apiTokenRecord) TableName() string { return "api_tokens" }
