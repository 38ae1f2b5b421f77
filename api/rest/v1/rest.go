package rest

import (
	devicectrl "github.com/convoy-cloud/convoy/api/rest/controller/device"
	eventctrl "github.com/convoy-cloud/convoy/api/rest/controller/event"
	jobctrl "github.com/convoy-cloud/convoy/api/rest/controller/job"
	schedulectrl "github.com/convoy-cloud/convoy/api/rest/controller/schedule"
	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/internal/event"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Bind the REST endpoints to the versioned endpoint group.
func Bind(g *echo.Group, m *engine.Manager, db *gorm.DB, bus event.Bus) {
	// jobs
	{
		ctrl := jobctrl.New(m)
		g.GET("/jobs", ctrl.List)
		g.GET("/jobs/:id", ctrl.Get)
		g.POST("/jobs", ctrl.Post)
		g.POST("/jobs/:id/stop", ctrl.Stop)
		g.DELETE("/jobs/:id", ctrl.Delete)
	}

	// devices
	{
		ctrl := devicectrl.New(db)
		g.GET("/devices", ctrl.List)
		g.GET("/devices/:id", ctrl.Get)
		g.POST("/devices", ctrl.Post)
		g.DELETE("/devices/:id", ctrl.Delete)
	}

	// schedules
	{
		ctrl := schedulectrl.New(db)
		g.GET("/schedules", ctrl.List)
		g.GET("/schedules/:id", ctrl.Get)
		g.POST("/schedules", ctrl.Post)
		g.DELETE("/schedules/:id", ctrl.Delete)
	}

	// events
	g.GET("/events", eventctrl.New(bus).Stream)
}
