package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

// Profile holds the optional personal data kept apart from the auth fields.
// One row per user, created together with the user.
type Profile struct {
	ID        uint    `gorm:"primaryKey"           json:"id"`
	UserID    uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Phone     *string `json:"phone"`
	CPF       *string `json:"cpf"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Brand       *string         `json:"brand"`
	Image       *string         `json:"image"`
	InStock     bool            `gorm:"default:true"                json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Cart is created lazily on first access, one per user.
type Cart struct {
	ID        uint       `gorm:"primaryKey"           json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CartItem `gorm:"foreignKey:CartID"    json:"items"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"                                      json:"id"`
	CartID    uint    `gorm:"not null;uniqueIndex:idx_cart_item_cart_product" json:"cart_id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_cart_item_cart_product" json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"                      json:"quantity"`
	Product   Product `gorm:"foreignKey:ProductID"                            json:"product"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey"                  json:"id"`
	UserID          uint            `gorm:"index;not null"              json:"user_id"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status          string          `gorm:"not null;default:pending"    json:"status"`
	ShippingAddress string          `gorm:"not null"                    json:"shipping_address"`
	PaymentMethod   string          `gorm:"not null"                    json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
}

// OrderItem is an immutable copy of a cart line at checkout time. Orders keep
// their own product/quantity/price snapshot so later cart or catalog edits
// cannot rewrite them.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID uint            `gorm:"not null"                    json:"product_id"`
	Quantity  uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Product   Product         `gorm:"foreignKey:ProductID"        json:"product"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey"                                     json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_favorite_user_product" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
}

type Address struct {
	ID           uint   `gorm:"primaryKey"     json:"id"`
	UserID       uint   `gorm:"index;not null" json:"user_id"`
	Label        string `gorm:"not null"       json:"label"`
	Street       string `gorm:"not null"       json:"street"`
	Number       string `gorm:"not null"       json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `gorm:"not null"       json:"neighborhood"`
	City         string `gorm:"not null"       json:"city"`
	State        string `gorm:"not null"       json:"state"`
	ZipCode      string `gorm:"not null"       json:"zip_code"`
	IsDefault    bool   `gorm:"default:false"  json:"is_default"`
}
