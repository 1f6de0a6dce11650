package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 各ハンドラのルート登録
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

func registerRoutes(e *echo.Echo, registrars ...RouteRegistrar) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	for _, r := range registrars {
		r.RegisterRoutes(e)
	}
}
