package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/application/service"
	"reminderengine/internal/domain/constant"
	appErrors "reminderengine/internal/pkg/errors"
	"reminderengine/internal/pkg/logger"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// StatusResponse is the body of action and boot responses.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status        string `json:"status"`
	AppReady      bool   `json:"app_ready"`
	PendingAlarms int    `json:"pending_alarms"`
}

// AlarmResponse describes one armed wake trigger.
type AlarmResponse struct {
	ReminderID uint64    `json:"reminder_id"`
	ItemID     uint64    `json:"item_id"`
	DueTime    time.Time `json:"due_time"`
	Title      string    `json:"title"`
}

// ActionHandler serves the HTTP alert surface and engine housekeeping.
type ActionHandler struct {
	dispatcher service.ActionDispatcher
	boot       service.BootReceiver
	alarms     service.AlarmScheduler
	bridge     service.Bridge
	timeout    time.Duration
	log        logger.Logger
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(
	dispatcher service.ActionDispatcher,
	boot service.BootReceiver,
	alarms service.AlarmScheduler,
	bridge service.Bridge,
	timeout time.Duration,
	log logger.Logger,
) *ActionHandler {
	return &ActionHandler{
		dispatcher: dispatcher,
		boot:       boot,
		alarms:     alarms,
		bridge:     bridge,
		timeout:    timeout,
		log:        log,
	}
}

// HandleAction is POST /notifications/:reminder_id/:action.
func (h *ActionHandler) HandleAction(c echo.Context) error {
	reminderID, err := strconv.ParseUint(c.Param("reminder_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reminder id")
	}
	action, ok := constant.ParseAction(c.Param("action"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action")
	}
	req := dto.ActionRequest{Action: action, ReminderID: reminderID}
	if raw := c.QueryParam("item_id"); raw != "" {
		if req.ItemID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	err = h.dispatcher.Dispatch(ctx, req)
	switch {
	case errors.Is(err, appErrors.ErrStaleAction):
		return c.JSON(http.StatusOK, StatusResponse{Status: "stale"})
	case err != nil:
		h.log.Error(fmt.Sprintf("Failed to handle %s on reminder %d", action, reminderID), err)
		return echo.NewHTTPError(http.StatusInternalServerError, "action failed")
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleBoot is POST /boot.
func (h *ActionHandler) HandleBoot(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.boot.OnBoot(ctx); err != nil {
		h.log.Error("Failed to queue alarm restore", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "boot failed")
	}
	return c.JSON(http.StatusAccepted, StatusResponse{Status: "queued"})
}

// ListAlarms is GET /alarms.
func (h *ActionHandler) ListAlarms(c echo.Context) error {
	pending := h.alarms.Pending()
	out := make([]AlarmResponse, 0, len(pending))
	for _, t := range pending {
		out = append(out, AlarmResponse{ReminderID: t.ReminderID, ItemID: t.ItemID, DueTime: t.DueTime, Title: t.Title})
	}
	return c.JSON(http.StatusOK, out)
}

// Health is GET /healthz.
func (h *ActionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		AppReady:      h.bridge.Ready(),
		PendingAlarms: len(h.alarms.Pending()),
	})
}
