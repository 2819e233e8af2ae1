package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/models"
)

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	h.publishTopic(c, "cart_events", event)
}

func (h *CartHandler) publishTopic(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// cartFor loads the user's cart, creating it on first access. A concurrent
// create that trips the unique user index is resolved by re-reading once.
func cartFor(db *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		if ferr := db.Where("user_id = ?", userID).First(&cart).Error; ferr == nil {
			return &cart, nil
		}
		return nil, err
	}
	return &cart, nil
}

type cartItemView struct {
	models.CartItem
	TotalPrice decimal.Decimal `json:"total_price"`
}

func cartView(cart *models.Cart, items []models.CartItem) echo.Map {
	views := make([]cartItemView, 0, len(items))
	total := decimal.Zero
	var count uint
	for _, it := range items {
		line := it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		count += it.Quantity
		views = append(views, cartItemView{CartItem: it, TotalPrice: line})
	}

	return echo.Map{
		"id":          cart.ID,
		"user_id":     cart.UserID,
		"created_at":  cart.CreatedAt,
		"items":       views,
		"total_price": total,
		"total_items": count,
	}
}
