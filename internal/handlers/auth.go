package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/hash"
	"github.com/mateusvsilva/perfume-shop/internal/models"
	"github.com/mateusvsilva/perfume-shop/internal/mykafka"
	"github.com/mateusvsilva/perfume-shop/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return errorResponse(c, http.StatusBadRequest, "username, email and password are required")
	}

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return errorResponse(c, http.StatusBadRequest, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// The profile row is created right here rather than through a save hook,
	// so registration is the single place a user gains its profile.
	if err := h.DB.Create(&models.Profile{UserID: user.ID}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "user_events", map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	}

	accessToken, refreshToken, err := h.Tokens.IssueTokens(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	publish(c, h.Producer, "user_events", map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"is_admin":      user.Role == "admin",
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "missing refresh token")
	}

	if err := h.Tokens.RevokeRefreshToken(refreshCookie.Value); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)
	raw := req.RefreshToken
	if raw == "" {
		cookie, err := c.Cookie("refreshToken")
		if err != nil {
			return errorResponse(c, http.StatusBadRequest, "missing refresh token")
		}
		raw = cookie.Value
	}

	newAccess, newRefresh, _, err := h.Tokens.RotateToken(raw)
	if err != nil {
		return err
	}

	c.SetCookie(token.CreateCookie("accessToken", newAccess, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(token.RefreshTTL)))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  newAccess,
		"refresh_token": newRefresh,
	})
}

func (h *AuthHandler) GetProfile(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return errorResponse(c, http.StatusNotFound, "user not found")
	}

	profile, err := h.ensureProfile(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, profileResponse(&user, profile))
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name      *string `json:"name"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		CPF       *string `json:"cpf"`
		BirthDate *string `json:"birth_date"`
		Gender    *string `json:"gender"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return errorResponse(c, http.StatusNotFound, "user not found")
	}
	profile, err := h.ensureProfile(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != nil {
		first, last := splitName(*req.Name)
		user.FirstName = first
		user.LastName = last
	}
	if req.Email != nil && *req.Email != "" && *req.Email != user.Email {
		var other models.User
		err := h.DB.Where("email = ? AND id <> ?", *req.Email, userID).First(&other).Error
		if err == nil {
			return errorResponse(c, http.StatusBadRequest, "email already in use")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		user.Email = *req.Email
	}

	// Empty submitted strings clear the optional fields.
	if req.Phone != nil {
		profile.Phone = nilIfEmpty(*req.Phone)
	}
	if req.CPF != nil {
		profile.CPF = nilIfEmpty(*req.CPF)
	}
	if req.BirthDate != nil {
		profile.BirthDate = nilIfEmpty(*req.BirthDate)
	}
	if req.Gender != nil {
		profile.Gender = nilIfEmpty(*req.Gender)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Save(profile).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, profileResponse(&user, profile))
}

// ensureProfile re-creates a missing profile row for accounts that predate
// the profile table.
func (h *AuthHandler) ensureProfile(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := h.DB.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = models.Profile{UserID: userID}
	if err := h.DB.Create(&profile).Error; err != nil {
		if ferr := h.DB.Where("user_id = ?", userID).First(&profile).Error; ferr == nil {
			return &profile, nil
		}
		return nil, err
	}
	return &profile, nil
}

func profileResponse(user *models.User, profile *models.Profile) echo.Map {
	return echo.Map{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      profile.Phone,
		"cpf":        profile.CPF,
		"birth_date": profile.BirthDate,
		"gender":     profile.Gender,
	}
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
