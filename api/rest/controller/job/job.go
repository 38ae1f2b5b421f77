package job

import (
	"errors"
	"net/http"

	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Controller exposes the job engine over REST.
type Controller struct {
	engine *engine.Manager
}

func New(m *engine.Manager) *Controller {
	return &Controller{engine: m}
}

// PostRequest is one job submission.
type PostRequest struct {
	DeviceIDs        []string `json:"device_ids"`
	Commands         []string `json:"commands"`
	BatchSize        int      `json:"batch_size"`
	RateLimitPerHour int      `json:"rate_limit_per_hour,omitempty"`
}

func (ctrl *Controller) Post(c echo.Context) error {
	req := &PostRequest{}

	if err := c.Bind(req); err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(req.DeviceIDs))
	for i, raw := range req.DeviceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.ErrBadRequest.SetInternal(err)
		}
		ids[i] = id
	}

	log.Info("submitting job",
		"devices", len(ids),
		"commands", len(req.Commands),
		"batch_size", req.BatchSize,
		"rate_per_hour", req.RateLimitPerHour)

	resp, err := ctrl.engine.Create(c.Request().Context(), &engine.CreateRequest{
		DeviceIDs:   ids,
		Commands:    req.Commands,
		BatchSize:   req.BatchSize,
		RatePerHour: req.RateLimitPerHour,
	})
	if err != nil {
		var submission *engine.SubmissionError
		if errors.As(err, &submission) {
			return echo.ErrBadRequest.SetInternal(err)
		}

		log.Error("failed to create job", "error", err)
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (ctrl *Controller) List(c echo.Context) error {
	return c.JSON(http.StatusOK, ctrl.engine.List())
}

func (ctrl *Controller) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	view, err := ctrl.engine.Snapshot(id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return echo.ErrNotFound
		}
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, view)
}

func (ctrl *Controller) Stop(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := ctrl.engine.RequestStop(id); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return echo.ErrNotFound
		}
		return echo.ErrInternalServerError.SetInternal(err)
	}

	// the stop is cooperative; its effect shows up in
	// subsequent polls
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": id.String()})
}

func (ctrl *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := ctrl.engine.Delete(id); err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			return echo.ErrNotFound
		case errors.Is(err, engine.ErrNotTerminal):
			return echo.NewHTTPError(http.StatusConflict, "job has not finished")
		default:
			return echo.ErrInternalServerError.SetInternal(err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
