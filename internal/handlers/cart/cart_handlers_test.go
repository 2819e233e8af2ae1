package cart

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/config"
	"github.com/mateusvsilva/perfume-shop/internal/models"
	"github.com/mateusvsilva/perfume-shop/internal/mykafka"
)

func newTestHandler(t *testing.T) (*CartHandler, *echo.Echo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return &CartHandler{DB: db, Producer: &mykafka.Producer{}}, echo.New()
}

func doJSONRequest(t *testing.T, e *echo.Echo, method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c
}

func asUser(c echo.Context, userID uint) {
	c.Set("userID", userID)
	c.Set("role", "user")
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Description: "a test perfume",
		Price:       decimal.RequireFromString(price),
		InStock:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

type cartResponse struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems uint            `json:"total_items"`
	Items      []struct {
		ID         uint            `json:"id"`
		ProductID  uint            `json:"product_id"`
		Quantity   uint            `json:"quantity"`
		TotalPrice decimal.Decimal `json:"total_price"`
	} `json:"items"`
}

func viewCart(t *testing.T, h *CartHandler, e *echo.Echo, userID uint) cartResponse {
	t.Helper()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/cart", nil)
	asUser(c, userID)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetCartCreatesEmptyCart(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")

	resp := viewCart(t, h, e, user.ID)
	require.Len(t, resp.Items, 0)
	require.True(t, resp.TotalPrice.IsZero())
	require.Equal(t, uint(0), resp.TotalItems)

	var count int64
	h.DB.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	require.Equal(t, int64(1), count)

	// A second view reuses the same cart.
	resp2 := viewCart(t, h, e, user.ID)
	require.Equal(t, resp.ID, resp2.ID)
}

func TestAddToCartMergesQuantities(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	for _, q := range []uint{2, 3} {
		rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{
			"product_id": product.ID,
			"quantity":   q,
		})
		asUser(c, user.ID)
		require.NoError(t, h.AddToCart(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var items []models.CartItem
	require.NoError(t, h.DB.Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, uint(5), items[0].Quantity)
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{"product_id": product.ID})
	asUser(c, user.ID)
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.CartItem
	require.NoError(t, h.DB.First(&item).Error)
	require.Equal(t, uint(1), item.Quantity)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")

	rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{"product_id": 999})
	asUser(c, user.ID)
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCartItemToZeroRemoves(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	recAdd, cAdd := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{
		"product_id": product.ID,
		"quantity":   2,
	})
	asUser(cAdd, user.ID)
	require.NoError(t, h.AddToCart(cAdd))
	require.Equal(t, http.StatusOK, recAdd.Code)

	var item models.CartItem
	require.NoError(t, h.DB.First(&item).Error)

	rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/update", map[string]int{
		"item_id":  int(item.ID),
		"quantity": 0,
	})
	asUser(c, user.ID)
	require.NoError(t, h.UpdateCartItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := viewCart(t, h, e, user.ID)
	require.Len(t, resp.Items, 0)
	require.Equal(t, uint(0), resp.TotalItems)
}

func TestUpdateCartItemOverwritesQuantity(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	recAdd, cAdd := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{
		"product_id": product.ID,
		"quantity":   2,
	})
	asUser(cAdd, user.ID)
	require.NoError(t, h.AddToCart(cAdd))
	require.Equal(t, http.StatusOK, recAdd.Code)

	var item models.CartItem
	require.NoError(t, h.DB.First(&item).Error)

	rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/update", map[string]int{
		"item_id":  int(item.ID),
		"quantity": 7,
	})
	asUser(c, user.ID)
	require.NoError(t, h.UpdateCartItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, h.DB.First(&item, item.ID).Error)
	require.Equal(t, uint(7), item.Quantity)
}

func TestUpdateCartItemNotOwned(t *testing.T) {
	h, e := newTestHandler(t)
	owner := seedUser(t, h.DB, "owner")
	intruder := seedUser(t, h.DB, "intruder")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	recAdd, cAdd := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{"product_id": product.ID})
	asUser(cAdd, owner.ID)
	require.NoError(t, h.AddToCart(cAdd))
	require.Equal(t, http.StatusOK, recAdd.Code)

	var item models.CartItem
	require.NoError(t, h.DB.First(&item).Error)

	rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/update", map[string]int{
		"item_id":  int(item.ID),
		"quantity": 3,
	})
	asUser(c, intruder.ID)
	require.NoError(t, h.UpdateCartItem(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveFromCart(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	recAdd, cAdd := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{"product_id": product.ID})
	asUser(cAdd, user.ID)
	require.NoError(t, h.AddToCart(cAdd))
	require.Equal(t, http.StatusOK, recAdd.Code)

	var item models.CartItem
	require.NoError(t, h.DB.First(&item).Error)

	rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/remove", map[string]uint{"item_id": item.ID})
	asUser(c, user.ID)
	require.NoError(t, h.RemoveFromCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	recMissing, cMissing := doJSONRequest(t, e, http.MethodPost, "/cart/remove", map[string]uint{"item_id": item.ID})
	asUser(cMissing, user.ID)
	require.NoError(t, h.RemoveFromCart(cMissing))
	require.Equal(t, http.StatusNotFound, recMissing.Code)
}

func TestClearCartIdempotent(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	product := seedProduct(t, h.DB, "Eau de Test", "100.00")

	recAdd, cAdd := doJSONRequest(t, e, http.MethodPost, "/cart/add", map[string]uint{
		"product_id": product.ID,
		"quantity":   4,
	})
	asUser(cAdd, user.ID)
	require.NoError(t, h.AddToCart(cAdd))
	require.Equal(t, http.StatusOK, recAdd.Code)

	for i := 0; i < 2; i++ {
		rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/clear", nil)
		asUser(c, user.ID)
		require.NoError(t, h.ClearCart(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	resp := viewCart(t, h, e, user.ID)
	require.Len(t, resp.Items, 0)
}

func TestCartTotals(t *testing.T) {
	h, e := newTestHandler(t)
	user := seedUser(t, h.DB, "buyer")
	productA := seedProduct(t, h.DB, "Perfume A", "100.00")
	productB := seedProduct(t, h.DB, "Perfume B", "50.00")

	for _, add := range []map[string]uint{
		{"product_id": productA.ID, "quantity": 2},
		{"product_id": productB.ID, "quantity": 1},
	} {
		rec, c := doJSONRequest(t, e, http.MethodPost, "/cart/add", add)
		asUser(c, user.ID)
		require.NoError(t, h.AddToCart(c))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	resp := viewCart(t, h, e, user.ID)
	require.Len(t, resp.Items, 2)
	require.Equal(t, uint(3), resp.TotalItems)
	require.True(t, resp.TotalPrice.Equal(decimal.RequireFromString("250.00")),
		"expected total 250.00, got %s", resp.TotalPrice)
	require.True(t, resp.Items[0].TotalPrice.Equal(decimal.RequireFromString("200.00")))
}
