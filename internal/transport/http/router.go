package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mateusvsilva/perfume-shop/internal/handlers"
	"github.com/mateusvsilva/perfume-shop/internal/handlers/cart"
	"github.com/mateusvsilva/perfume-shop/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	CartHandler     *cart.CartHandler
	OrderHandler    *handlers.OrderHandler
	FavoriteHandler *handlers.FavoriteHandler
	AddressHandler  *handlers.AddressHandler
	TokenService    *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = errorHandler(e)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.POST("/refresh", d.AuthHandler.Refresh)

	profile := v1.Group("/profile", d.TokenService.RequireAuth)
	profile.GET("", d.AuthHandler.GetProfile)
	profile.PATCH("", d.AuthHandler.UpdateProfile)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := v1.Group("/admin", d.TokenService.RequireAdmin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	cartGroup := v1.Group("/cart", d.TokenService.RequireAuth)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("/add", d.CartHandler.AddToCart)
	cartGroup.POST("/update", d.CartHandler.UpdateCartItem)
	cartGroup.POST("/remove", d.CartHandler.RemoveFromCart)
	cartGroup.POST("/clear", d.CartHandler.ClearCart)

	v1.POST("/checkout", d.CartHandler.Checkout, d.TokenService.RequireAuth)

	orders := v1.Group("/orders", d.TokenService.RequireAuth)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	favorites := v1.Group("/favorites", d.TokenService.RequireAuth)
	favorites.GET("", d.FavoriteHandler.GetFavorites)
	favorites.POST("/toggle", d.FavoriteHandler.ToggleFavorite)
	favorites.POST("/remove", d.FavoriteHandler.RemoveFavorite)
	favorites.GET("/check/:product_id", d.FavoriteHandler.CheckFavorite)

	addresses := v1.Group("/addresses", d.TokenService.RequireAuth)
	addresses.GET("", d.AddressHandler.GetAddresses)
	addresses.POST("", d.AddressHandler.CreateAddress)
	addresses.GET("/:id", d.AddressHandler.GetAddress)
	addresses.PATCH("/:id", d.AddressHandler.PatchAddress)
	addresses.DELETE("/:id", d.AddressHandler.DeleteAddress)
}

// errorHandler renders every error as {"error": msg}; unexpected ones become
// a generic 500 so internals never leak to clients.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "Internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if code < http.StatusInternalServerError {
				msg = fmt.Sprint(he.Message)
			}
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(code); err != nil {
				e.Logger.Error(err)
			}
			return
		}
		if err := c.JSON(code, echo.Map{"error": msg}); err != nil {
			e.Logger.Error(err)
		}
	}
}
