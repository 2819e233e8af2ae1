package cart

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/models"
	"github.com/mateusvsilva/perfume-shop/internal/service/token"
)

// Checkout turns the cart into a pending order. Order insert, line snapshots
// and cart clearing run in one transaction so a retry can never double-charge.
func (h *CartHandler) Checkout(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		AddressID     uint   `json:"address_id"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var order models.Order

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Cart not found")
			}
			return err
		}

		var items []models.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Cart is empty")
		}

		if req.AddressID == 0 || req.PaymentMethod == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "address_id and payment_method are required")
		}

		var address models.Address
		if err := tx.Where("id = ? AND user_id = ?", req.AddressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Address not found")
			}
			return err
		}

		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		order = models.Order{
			UserID:          userID,
			Total:           total,
			Status:          models.OrderStatusPending,
			ShippingAddress: renderShippingAddress(&address),
			PaymentMethod:   req.PaymentMethod,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, it := range items {
			oi := models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.Product.Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return nil
	})

	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			if he.Code == http.StatusBadRequest || he.Code == http.StatusNotFound {
				return c.JSON(he.Code, echo.Map{"error": fmt.Sprint(he.Message)})
			}
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publishTopic(c, "order_events", map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Order created successfully",
		"order_id": order.ID,
	})
}

func renderShippingAddress(a *models.Address) string {
	return fmt.Sprintf(
		"%s, %s, %s - %s, %s - %s, CEP: %s",
		a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, a.ZipCode,
	)
}
