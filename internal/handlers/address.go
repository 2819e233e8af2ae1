package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/models"
	"github.com/mateusvsilva/perfume-shop/internal/service/token"
)

type AddressHandler struct {
	DB *gorm.DB
}

type addressRequest struct {
	Label        string `json:"label"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	IsDefault    bool   `json:"is_default"`
}

func (r *addressRequest) validate() string {
	switch {
	case r.Label == "":
		return "label is required"
	case r.Street == "":
		return "street is required"
	case r.Number == "":
		return "number is required"
	case r.Neighborhood == "":
		return "neighborhood is required"
	case r.City == "":
		return "city is required"
	case r.State == "":
		return "state is required"
	case r.ZipCode == "":
		return "zip_code is required"
	}
	return ""
}

func (h *AddressHandler) GetAddresses(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var addresses []models.Address
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&addresses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *AddressHandler) CreateAddress(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return errorResponse(c, http.StatusBadRequest, msg)
	}

	address := models.Address{
		UserID:       userID,
		Label:        req.Label,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		IsDefault:    req.IsDefault,
	}

	if err := h.saveWithDefault(&address); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, address)
}

func (h *AddressHandler) GetAddress(c echo.Context) error {
	address, herr := h.ownedAddress(c)
	if herr != nil {
		return herr
	}
	return c.JSON(http.StatusOK, address)
}

func (h *AddressHandler) PatchAddress(c echo.Context) error {
	address, herr := h.ownedAddress(c)
	if herr != nil {
		return herr
	}

	var req struct {
		Label        *string `json:"label"`
		Street       *string `json:"street"`
		Number       *string `json:"number"`
		Complement   *string `json:"complement"`
		Neighborhood *string `json:"neighborhood"`
		City         *string `json:"city"`
		State        *string `json:"state"`
		ZipCode      *string `json:"zip_code"`
		IsDefault    *bool   `json:"is_default"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	if req.Label != nil {
		address.Label = *req.Label
	}
	if req.Street != nil {
		address.Street = *req.Street
	}
	if req.Number != nil {
		address.Number = *req.Number
	}
	if req.Complement != nil {
		address.Complement = *req.Complement
	}
	if req.Neighborhood != nil {
		address.Neighborhood = *req.Neighborhood
	}
	if req.City != nil {
		address.City = *req.City
	}
	if req.State != nil {
		address.State = *req.State
	}
	if req.ZipCode != nil {
		address.ZipCode = *req.ZipCode
	}
	if req.IsDefault != nil {
		address.IsDefault = *req.IsDefault
	}

	if err := h.saveWithDefault(address); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, address)
}

func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	address, herr := h.ownedAddress(c)
	if herr != nil {
		return herr
	}

	if err := h.DB.Delete(address).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Address deleted"})
}

// saveWithDefault keeps the one-default-per-user invariant: promoting an
// address demotes every other one inside the same transaction.
func (h *AddressHandler) saveWithDefault(address *models.Address) error {
	return h.DB.Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND id <> ?", address.UserID, address.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(address).Error
	})
}

func (h *AddressHandler) ownedAddress(c echo.Context) (*models.Address, error) {
	userID, err := token.UserID(c)
	if err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var address models.Address
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Address not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return &address, nil
}
