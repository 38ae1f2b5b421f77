package api

import (
	"context"
	"fmt"

	rest "github.com/convoy-cloud/convoy/api/rest/v1"
	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/internal/event"
	"github.com/convoy-cloud/convoy/pkg/env"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var server *echo.Echo

// Start launches convoy's API.
func Start(m *engine.Manager, db *gorm.DB, bus event.Bus) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server = e

	// health
	e.GET("/health", Health)

	// metrics
	prometheus.NewPrometheus("convoy", nil).Use(e)

	// REST
	rest.Bind(e.Group("/v1"), m, db, bus)

	return e.Start(fmt.Sprintf(":%v", env.Variables().Port))
}

// Shutdown stops the API server gracefully.
func Shutdown() error {
	if server == nil {
		return nil
	}
	return server.Shutdown(context.Background())
}
