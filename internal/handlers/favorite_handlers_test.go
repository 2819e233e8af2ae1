package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mateusvsilva/perfume-shop/internal/models"
)

func newFavoriteHandler(t *testing.T) (*FavoriteHandler, *echo.Echo) {
	t.Helper()

	db := initTestDB(t)
	return &FavoriteHandler{DB: db, Producer: newTestProducer()}, echo.New()
}

func TestToggleFavorite(t *testing.T) {
	h, e := newFavoriteHandler(t)
	user := createTestUser(t, h.DB, "liker")
	product := createTestProduct(t, h.DB, "Eau de Test", "99.00")

	payload := map[string]uint{"product_id": product.ID}

	rec, c := doJSONRequest(t, e, http.MethodPost, "/favorites/toggle", payload)
	asUser(c, user.ID)
	require.NoError(t, h.ToggleFavorite(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeMap(t, rec)["is_favorite"])

	var count int64
	h.DB.Model(&models.Favorite{}).Count(&count)
	require.Equal(t, int64(1), count)

	// Second toggle on the same pair deletes it.
	rec2, c2 := doJSONRequest(t, e, http.MethodPost, "/favorites/toggle", payload)
	asUser(c2, user.ID)
	require.NoError(t, h.ToggleFavorite(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Equal(t, false, decodeMap(t, rec2)["is_favorite"])

	h.DB.Model(&models.Favorite{}).Count(&count)
	require.Equal(t, int64(0), count)
}

func TestToggleFavoriteValidation(t *testing.T) {
	h, e := newFavoriteHandler(t)
	user := createTestUser(t, h.DB, "liker")

	rec, c := doJSONRequest(t, e, http.MethodPost, "/favorites/toggle", map[string]uint{})
	asUser(c, user.ID)
	require.NoError(t, h.ToggleFavorite(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec2, c2 := doJSONRequest(t, e, http.MethodPost, "/favorites/toggle", map[string]uint{"product_id": 999})
	asUser(c2, user.ID)
	require.NoError(t, h.ToggleFavorite(c2))
	require.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestCheckFavorite(t *testing.T) {
	h, e := newFavoriteHandler(t)
	user := createTestUser(t, h.DB, "liker")
	product := createTestProduct(t, h.DB, "Eau de Test", "99.00")

	require.NoError(t, h.DB.Create(&models.Favorite{UserID: user.ID, ProductID: product.ID}).Error)

	rec, c := doJSONRequest(t, e, http.MethodGet, "/favorites/check/1", nil)
	c.SetParamNames("product_id")
	c.SetParamValues("1")
	asUser(c, user.ID)
	require.NoError(t, h.CheckFavorite(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeMap(t, rec)["is_favorite"])

	other := createTestUser(t, h.DB, "other")
	rec2, c2 := doJSONRequest(t, e, http.MethodGet, "/favorites/check/1", nil)
	c2.SetParamNames("product_id")
	c2.SetParamValues("1")
	asUser(c2, other.ID)
	require.NoError(t, h.CheckFavorite(c2))
	require.Equal(t, false, decodeMap(t, rec2)["is_favorite"])
}

func TestRemoveFavorite(t *testing.T) {
	h, e := newFavoriteHandler(t)
	user := createTestUser(t, h.DB, "liker")
	product := createTestProduct(t, h.DB, "Eau de Test", "99.00")

	favorite := models.Favorite{UserID: user.ID, ProductID: product.ID}
	require.NoError(t, h.DB.Create(&favorite).Error)

	rec, c := doJSONRequest(t, e, http.MethodPost, "/favorites/remove", map[string]uint{"favorite_id": favorite.ID})
	asUser(c, user.ID)
	require.NoError(t, h.RemoveFavorite(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	h.DB.Model(&models.Favorite{}).Count(&count)
	require.Equal(t, int64(0), count)

	// Someone else's favorite id reads as absent.
	other := createTestUser(t, h.DB, "other")
	favorite2 := models.Favorite{UserID: user.ID, ProductID: product.ID}
	require.NoError(t, h.DB.Create(&favorite2).Error)

	rec2, c2 := doJSONRequest(t, e, http.MethodPost, "/favorites/remove", map[string]uint{"favorite_id": favorite2.ID})
	asUser(c2, other.ID)
	require.NoError(t, h.RemoveFavorite(c2))
	require.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestGetFavorites(t *testing.T) {
	h, e := newFavoriteHandler(t)
	user := createTestUser(t, h.DB, "liker")
	p1 := createTestProduct(t, h.DB, "One", "10.00")
	p2 := createTestProduct(t, h.DB, "Two", "20.00")

	require.NoError(t, h.DB.Create(&models.Favorite{UserID: user.ID, ProductID: p1.ID}).Error)
	require.NoError(t, h.DB.Create(&models.Favorite{UserID: user.ID, ProductID: p2.ID}).Error)

	rec, c := doJSONRequest(t, e, http.MethodGet, "/favorites", nil)
	asUser(c, user.ID)
	require.NoError(t, h.GetFavorites(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Favorite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.Equal(t, "One", resp[0].Product.Name)
}
