package webhook

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/semaphore"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/core/usecase"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
)

// Delivery results, used as metric labels.
const (
	resultOK        = "ok"
	resultHTTPError = "http_error"
	resultNetwork   = "network"
	resultDropped   = "dropped"
)

type doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// Client posts matched records to the webhook URL. Each Deliver runs one POST
// attempt in its own goroutine; there is no retry and no queue.
type Client struct {
	log      applog.AppLogger
	http     doer
	timeout  time.Duration
	sem      *semaphore.Weighted
	inflight sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

var _ port.WebhookDeliverer = (*Client)(nil)

// NewClient validates cfg and builds a client whose deliveries are bounded by
// cfg.MaxInFlight and cfg.TimeoutMS.
func NewClient(log applog.AppLogger, v *validator.Validate, cfg *Config) (*Client, error) {
	if err := v.Struct(cfg); err != nil {
		log.Error("invalid webhook config", "err", err)
		return nil, apperr.NewInvalidArgErr("invalid webhook config", err)
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	name := cfg.UserAgent
	if name == "" {
		name = "address-relay-service"
	}
	return &Client{
		log: log,
		http: &fasthttp.Client{
			Name:            name,
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
			MaxConnsPerHost: int(cfg.MaxInFlight),
		},
		timeout: timeout,
		sem:     semaphore.NewWeighted(cfg.MaxInFlight),
	}, nil
}

// Deliver returns immediately. When MaxInFlight deliveries are already
// running, or the client is closed, the record is dropped and counted.
func (c *Client) Deliver(url string, rec entity.TransactionRecord) {
	c.mu.Lock()
	if c.closed || !c.sem.TryAcquire(1) {
		c.mu.Unlock()
		imetrics.Webhook().DeliveriesTotal.WithLabelValues(resultDropped).Inc()
		c.log.Warn("Webhook delivery dropped", "txid", rec.TxID, "address", rec.Address)
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	imetrics.Webhook().InFlight.Inc()
	go func() {
		defer c.inflight.Done()
		defer imetrics.Webhook().InFlight.Dec()
		defer c.sem.Release(1)

		if err := c.post(url, rec); err != nil {
			c.log.Warn("Webhook delivery failed", "url", url, "txid", rec.TxID, "err", err)
			imetrics.App().WarningsTotal.WithLabelValues(imetrics.ComponentWebhook, "deliver").Inc()
			return
		}
		c.log.Debug("Webhook delivered", "url", url, "txid", rec.TxID)
	}()
}

func (c *Client) post(url string, rec entity.TransactionRecord) error {
	body, err := usecase.MarshalRecordJSON(rec)
	if err != nil {
		return apperr.NewInternalErr("failed to marshal webhook payload", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	start := time.Now()
	err = c.http.DoTimeout(req, resp, c.timeout)
	imetrics.Webhook().LatencyMS.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		imetrics.Webhook().DeliveriesTotal.WithLabelValues(resultNetwork).Inc()
		return apperr.NewDeliveryErr("webhook POST failed", err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		imetrics.Webhook().DeliveriesTotal.WithLabelValues(resultHTTPError).Inc()
		return apperr.NewDeliveryErr("webhook returned status "+strconv.Itoa(status), nil)
	}
	imetrics.Webhook().DeliveriesTotal.WithLabelValues(resultOK).Inc()
	return nil
}

// Close stops accepting deliveries and waits for in-flight ones to finish or
// for ctx to end, whichever comes first. In-flight POSTs are never cancelled.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(apperr.NewDeliveryErr("webhook deliveries still in flight", nil), ctx.Err())
	}
}
