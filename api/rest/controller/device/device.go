package device

import (
	"errors"
	"net/http"

	svc "github.com/convoy-cloud/convoy/api/rest/service/device"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Controller exposes the device inventory over REST.
type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (ctrl *Controller) List(c echo.Context) error {
	devices, err := svc.Service(c.Request().Context(), ctrl.db).List(&svc.ListRequest{
		Country:  c.QueryParam("country"),
		Protocol: c.QueryParam("protocol"),
	})
	if err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, devices)
}

func (ctrl *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	device, err := svc.Service(c.Request().Context(), ctrl.db).Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.ErrNotFound
		}
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, device)
}

func (ctrl *Controller) Post(c echo.Context) error {
	req := &svc.CreateRequest{}

	if err := c.Bind(req); err != nil {
		return err
	}

	log.Info("creating device",
		"name", req.Name,
		"protocol", req.Protocol,
		"country", req.Country)

	device, err := svc.Service(c.Request().Context(), ctrl.db).Create(req)
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	return c.JSON(http.StatusCreated, device)
}

func (ctrl *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := svc.Service(c.Request().Context(), ctrl.db).Delete(id); err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.NoContent(http.StatusNoContent)
}
