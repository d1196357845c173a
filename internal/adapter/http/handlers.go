package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/usecase"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
)

// WatchAPI is the management surface the handlers expose.
type WatchAPI interface {
	Status(ctx context.Context) entity.Status
	ListWatched() []string
	Subscribe(ctx context.Context, addrs []string) (usecase.MutationResult, error)
	Unsubscribe(ctx context.Context, addrs []string) (usecase.MutationResult, error)
	ReadLogs(ctx context.Context, limit int) ([]entity.TransactionRecord, error)
	SetWebhook(ctx context.Context, url string) error
}

// Handlers maps HTTP routes onto WatchAPI.
type Handlers struct {
	log applog.AppLogger
	svc WatchAPI
}

func NewHandlers(log applog.AppLogger, svc WatchAPI) *Handlers {
	return &Handlers{log: log, svc: svc}
}

func (h *Handlers) Index(c fiber.Ctx) error {
	return c.SendString("Address relay service is running")
}

func (h *Handlers) Status(c fiber.Ctx) error {
	return c.JSON(h.svc.Status(c.Context()))
}

func (h *Handlers) List(c fiber.Ctx) error {
	return c.JSON(listResponse{Watching: nonNil(h.svc.ListWatched())})
}

func (h *Handlers) Subscribe(c fiber.Ctx) error {
	var req addressesRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	res, err := h.svc.Subscribe(c.Context(), req.Addresses)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(subscribeResponse{Success: true, Added: nonNil(res.Changed), Watching: nonNil(res.Watching)})
}

func (h *Handlers) Unsubscribe(c fiber.Ctx) error {
	var req addressesRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	res, err := h.svc.Unsubscribe(c.Context(), req.Addresses)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(unsubscribeResponse{Success: true, Removed: nonNil(res.Changed), Watching: nonNil(res.Watching)})
}

func (h *Handlers) Logs(c fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return h.fail(c, apperr.NewInvalidArgErr("limit must be an integer", err))
		}
		limit = n
	}
	recs, err := h.svc.ReadLogs(c.Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	if recs == nil {
		recs = []entity.TransactionRecord{}
	}
	return c.JSON(logsResponse{Logs: recs})
}

func (h *Handlers) Webhook(c fiber.Ctx) error {
	var req webhookRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.svc.SetWebhook(c.Context(), req.URL); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(webhookResponse{Success: true, Webhook: req.URL})
}

func decodeBody(c fiber.Ctx, out any) error {
	body := c.Body()
	if len(body) == 0 {
		return apperr.NewInvalidArgErr("request body is required", nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.NewInvalidArgErr("malformed JSON body", err)
	}
	return nil
}

// fail writes the error body. Invalid input maps to 400, everything else to
// 500.
func (h *Handlers) fail(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"
	var be apperr.BaseError
	if apperr.IsInvalidArg(err) {
		status = fiber.StatusBadRequest
	}
	if errors.As(err, &be) {
		msg = be.Message()
	}
	if status >= fiber.StatusInternalServerError {
		h.log.Error("Request failed", "method", c.Method(), "path", c.Path(), "err", err)
	} else {
		h.log.Debug("Request rejected", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(errorResponse{Error: msg, Code: apperr.CodeOf(err)})
}
