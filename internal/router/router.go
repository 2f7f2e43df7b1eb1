package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"kbine/internal/config"
	"kbine/internal/handler"
	"kbine/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	catalogHandler *handler.CatalogHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	webhookHandler *handler.WebhookHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/request-otp", authHandler.RequestOTP)
	api.POST("/auth/verify-otp", authHandler.VerifyOTP)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/operators", catalogHandler.ListOperators)
	api.GET("/plans", catalogHandler.ListPlans)

	// Provider webhooks are authenticated by signature, not by session.
	api.POST("/webhooks/wave", webhookHandler.HandleWave)
	api.POST("/webhooks/touchpoint", webhookHandler.HandleTouchPoint)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	// Order routes
	secured.POST("/orders", orderHandler.CreateOrder)
	secured.GET("/orders", orderHandler.ListOrders)
	secured.GET("/orders/:reference", orderHandler.GetOrder)

	// Payment routes
	secured.POST("/payments", paymentHandler.InitiatePayment)
	secured.GET("/payments/status/:reference", paymentHandler.GetPaymentStatus)

	// Administrative routes
	admin := secured.Group("", requireRole(string(model.UserRoleAdmin), string(model.UserRoleStaff)))
	admin.POST("/payments/:id/refund", paymentHandler.Refund)
	admin.PATCH("/payments/:id/status", paymentHandler.UpdateStatus)
	admin.DELETE("/payments/:id", paymentHandler.Delete)
}

// requireRole restricts a group to the given JWT roles.
func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := handler.CurrentRole(c)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
