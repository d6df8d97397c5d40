package webserver

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/internal/app"
)

// WebServer hosts the public food API and the token-guarded moderation
// surface on one echo instance.
type WebServer struct {
	root   *echo.Echo
	pub    *echo.Group
	api    *echo.Group
	mod    *echo.Group
	appCtx app.AppContext
}

var server *WebServer

type customValidator struct {
	validate *validator.Validate
}

func (cv *customValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Init builds the echo instance and route groups. Must be called before any
// route registration.
func Init(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &customValidator{validate: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.HTTPErrorHandler = errorHandler

	secret := []byte(appCtx.Config().Web.Secret)
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey: secret,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"code":    "UNAUTHORIZED",
				"message": "Missing or invalid bearer token",
			})
		},
	})

	server = &WebServer{
		root:   e,
		pub:    e.Group("/api"),
		api:    e.Group("/api", jwtMiddleware),
		mod:    e.Group("/api", jwtMiddleware, superRequired),
		appCtx: appCtx,
	}
	return server
}

// Listen blocks serving HTTP until shutdown.
func Listen() error {
	cfg := server.appCtx.Config().Web
	zap.L().Info("web server starting",
		zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return server.root.Start(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
}

// Shutdown stops the HTTP listener.
func Shutdown() error {
	return server.root.Close()
}

// Echo exposes the underlying instance (used in tests).
func Echo() *echo.Echo {
	return server.root
}

// AppCtx returns the application context bound at Init.
func AppCtx() app.AppContext {
	return server.appCtx
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		zap.L().Error("unhandled http error", zap.Error(err))
		he = echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	_ = c.JSON(he.Code, map[string]interface{}{
		"code":    http.StatusText(he.Code),
		"message": fmt.Sprintf("%v", he.Message),
	})
}

// Route registration helpers, called from api packages at startup.

func PubGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.pub.GET(path, h, m...)
}

func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.pub.POST(path, h, m...)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ModGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.mod.GET(path, h, m...)
}

func ModPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.mod.PATCH(path, h, m...)
}
