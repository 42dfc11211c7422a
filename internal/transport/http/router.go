package httpserver

import (
	"github.com/labstack/echo/v4"

	"techstore-backend/internal/handlers"
	authmw "techstore-backend/internal/middleware/auth"
)

type Deps struct {
	JWTSecret      []byte
	UploadDir      string
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.Static("/uploads", d.UploadDir)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/admin/register", d.AuthHandler.RegisterAdmin, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)
	authGroup.PUT("/toggle-role", d.AuthHandler.ToggleRole, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/categories/:category", d.ProductHandler.GetByCategory)
	products.GET("/:slug", d.ProductHandler.GetProductBySlug)
	products.POST("", d.ProductHandler.CreateProduct, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)

	api.GET("/search", d.SearchHandler.Search)

	orders := api.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder, authmw.Optional(d.JWTSecret))
	orders.GET("", d.OrderHandler.GetMyOrders, authmw.Authenticate(d.JWTSecret))
	orders.GET("/all", d.OrderHandler.GetAllOrders, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)
	orders.PUT("/:id", d.OrderHandler.UpdateOrderStatus, authmw.Authenticate(d.JWTSecret), authmw.AdminOnly)
}
