package schedule

import (
	"errors"
	"net/http"

	svc "github.com/convoy-cloud/convoy/api/rest/service/schedule"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Controller exposes stored job schedules over REST.
type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (ctrl *Controller) List(c echo.Context) error {
	schedules, err := svc.Service(c.Request().Context(), ctrl.db).List()
	if err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, schedules)
}

func (ctrl *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	schedule, err := svc.Service(c.Request().Context(), ctrl.db).Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.ErrNotFound
		}
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, schedule)
}

func (ctrl *Controller) Post(c echo.Context) error {
	req := &svc.CreateRequest{}

	if err := c.Bind(req); err != nil {
		return err
	}

	log.Info("creating schedule", "alias", req.Alias, "expression", req.Expression)

	schedule, err := svc.Service(c.Request().Context(), ctrl.db).Create(req)
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	return c.JSON(http.StatusCreated, schedule)
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
