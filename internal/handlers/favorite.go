package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/models"
	"github.com/mateusvsilva/perfume-shop/internal/mykafka"
	"github.com/mateusvsilva/perfume-shop/internal/service/token"
)

type FavoriteHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *FavoriteHandler) GetFavorites(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var favorites []models.Favorite
	if err := h.DB.Preload("Product").Where("user_id = ?", userID).Order("id ASC").Find(&favorites).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, favorites)
}

// ToggleFavorite creates the (user, product) favorite when absent and deletes
// it when present.
func (h *FavoriteHandler) ToggleFavorite(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == 0 {
		return errorResponse(c, http.StatusBadRequest, "product_id is required")
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var favorite models.Favorite
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&favorite).Error
	if err == nil {
		if err := h.DB.Delete(&favorite).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		publish(c, h.Producer, "favorite_events", map[string]any{
			"type":      "favorite_removed",
			"userID":    userID,
			"productID": req.ProductID,
		})
		return c.JSON(http.StatusOK, echo.Map{"is_favorite": false})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	favorite = models.Favorite{UserID: userID, ProductID: req.ProductID}
	if err := h.DB.Create(&favorite).Error; err != nil {
		// A concurrent toggle may have won the insert; re-read once.
		if ferr := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&favorite).Error; ferr != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	favorite.Product = product

	publish(c, h.Producer, "favorite_events", map[string]any{
		"type":      "favorite_added",
		"userID":    userID,
		"productID": req.ProductID,
	})

	return c.JSON(http.StatusOK, echo.Map{"is_favorite": true, "favorite": favorite})
}

func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		FavoriteID uint `json:"favorite_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	var favorite models.Favorite
	if err := h.DB.Where("id = ? AND user_id = ?", req.FavoriteID, userID).First(&favorite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "Favorite not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Delete(&favorite).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "favorite_events", map[string]any{
		"type":      "favorite_removed",
		"userID":    userID,
		"productID": favorite.ProductID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Favorite removed"})
}

func (h *FavoriteHandler) CheckFavorite(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}

	var count int64
	if err := h.DB.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"is_favorite": count > 0})
}
