package feed

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/core/usecase"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
)

type eventKind int

const (
	eventDialed eventKind = iota
	eventClosed
)

// event is what the dial and reader goroutines report to the run loop.
type event struct {
	kind eventKind
	conn port.FeedConn
	gen  uint64
	err  error
}

// Supervisor keeps one websocket connection to the upstream feed alive,
// resubscribes the full watch set on every (re)connect and hands inbound
// frames to the registered handler.
//
// All state transitions happen on the run-loop goroutine. Writes and closes
// of the live connection are serialized by writeMu. Lock order is writeMu,
// then mu.
type Supervisor struct {
	log     applog.AppLogger
	wg      *sync.WaitGroup
	config  *Config
	watch   port.WatchSet
	dial    port.FeedDialer
	handler port.FrameHandler

	writeMu sync.Mutex
	// readers tracks reader goroutines so Stop returns only after the
	// in-flight frame has been handled.
	readers sync.WaitGroup

	mu      sync.Mutex
	state   entity.ConnectionState
	retries int
	conn    port.FeedConn
	gen     uint64
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ port.FeedController = (*Supervisor)(nil)

// NewSupervisor validates cfg and builds a stopped supervisor. Goroutines it
// starts are tracked by wg.
func NewSupervisor(log applog.AppLogger, wg *sync.WaitGroup, cfg *Config, v *validator.Validate, watch port.WatchSet) (*Supervisor, error) {
	if err := v.Struct(cfg); err != nil {
		log.Error("invalid feed config", "err", err)
		return nil, apperr.NewInvalidArgErr("invalid feed config", err)
	}

	s := &Supervisor{
		log:    log,
		wg:     wg,
		config: cfg,
		watch:  watch,
		dial:   NewWebsocketDialer(cfg),
	}
	s.publishState(entity.StateDisconnected)
	return s, nil
}

// SetHandler registers the callback invoked for every inbound frame.
func (s *Supervisor) SetHandler(handler port.FrameHandler) {
	s.handler = handler
}

// Start launches the run loop. It fails if the supervisor is already running,
// has no handler, or has reached the Failed state.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return apperr.NewInternalErr("feed supervisor already running", nil)
	}
	if s.handler == nil {
		return apperr.NewInternalErr("frame handler is not configured", nil)
	}
	if s.state == entity.StateFailed {
		return apperr.NewTransportErr("feed supervisor failed, reconnect bound exhausted", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running = true

	events := make(chan event)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		s.run(ctx, cancel, events)
	}()
	return nil
}

// Stop cancels the heartbeat and any pending reconnect, closes the
// connection and waits for the run loop to exit. State becomes Disconnected
// unless the supervisor already failed.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		s.log.Trace("Feed supervisor already stopped")
		return
	}
	s.log.Trace("Stopping feed supervisor...")
	cancel()
	<-done
	s.log.Info("Feed supervisor stopped")
}

// State returns the current connection state.
func (s *Supervisor) State() entity.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Retries returns the consecutive failed attempts since the last successful
// connect.
func (s *Supervisor) Retries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retries
}

// Subscribe pushes a subscribeAddresses command carrying only addrs. It is a
// no-op unless connected.
func (s *Supervisor) Subscribe(_ context.Context, addrs []string) error {
	if len(addrs) == 0 {
		return nil
	}
	return s.send(usecase.SubscribeCommand(addrs))
}

func (s *Supervisor) run(ctx context.Context, cancel context.CancelFunc, events chan event) {
	var (
		heartbeat  *time.Ticker
		heartbeatC <-chan time.Time
		backoff    *time.Timer
		backoffC   <-chan time.Time
	)
	stopHeartbeat := func() {
		if heartbeat != nil {
			heartbeat.Stop()
			heartbeat, heartbeatC = nil, nil
		}
	}

	defer func() {
		cancel()
		stopHeartbeat()
		if backoff != nil {
			backoff.Stop()
		}
		s.dropConn()
		s.readers.Wait()

		s.mu.Lock()
		if s.state != entity.StateFailed {
			s.setStateLocked(entity.StateDisconnected)
		}
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	// reconnect moves to Reconnecting and arms the backoff timer, or to
	// Failed when the bound is exhausted.
	reconnect := func(cause error) bool {
		stopHeartbeat()
		s.dropConn()
		if !s.scheduleReconnect(cause) {
			return false
		}
		backoff = time.NewTimer(time.Duration(s.config.ReconnectDelayMS) * time.Millisecond)
		backoffC = backoff.C
		return true
	}

	s.connect(ctx, events)

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-events:
			switch ev.kind {
			case eventDialed:
				if ev.err != nil {
					imetrics.Feed().DialsTotal.WithLabelValues("error").Inc()
					s.log.Warn("Feed dial failed", "url", s.config.URL, "err", ev.err)
					imetrics.App().WarningsTotal.WithLabelValues(imetrics.ComponentFeed, "dial").Inc()
					if !reconnect(ev.err) {
						return
					}
					continue
				}
				imetrics.Feed().DialsTotal.WithLabelValues("ok").Inc()
				s.onConnected(ctx, ev.conn, events)
				interval := time.Duration(s.config.HeartbeatIntervalMS) * time.Millisecond
				heartbeat = time.NewTicker(interval)
				heartbeatC = heartbeat.C
				s.resubscribe()

			case eventClosed:
				if ev.gen != s.currentGen() {
					s.log.Trace("Ignoring close of superseded connection", "gen", ev.gen)
					continue
				}
				s.log.Warn("Feed connection lost, will reconnect", "err", ev.err)
				imetrics.App().WarningsTotal.WithLabelValues(imetrics.ComponentFeed, "closed").Inc()
				if !reconnect(ev.err) {
					return
				}
			}

		case <-heartbeatC:
			if err := s.send(usecase.PingCommand()); err != nil {
				s.log.Warn("Heartbeat ping failed", "err", err)
			}

		case <-backoffC:
			backoff, backoffC = nil, nil
			s.connect(ctx, events)
		}
	}
}

// connect starts one dial attempt. The result is reported on events; a
// connection that arrives after cancellation is closed.
func (s *Supervisor) connect(ctx context.Context, events chan<- event) {
	s.setState(entity.StateConnecting)
	s.log.Trace("Dialing feed", "url", s.config.URL)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		dialCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.DialTimeoutSeconds)*time.Second)
		conn, err := s.dial(dialCtx)
		cancel()

		select {
		case events <- event{kind: eventDialed, conn: conn, err: err}:
		case <-ctx.Done():
			if conn != nil {
				_ = conn.Close()
			}
		}
	}()
}

func (s *Supervisor) onConnected(ctx context.Context, conn port.FeedConn, events chan<- event) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.conn = conn
	s.retries = 0
	s.setStateLocked(entity.StateConnected)
	s.mu.Unlock()

	s.log.Info("Connected to feed", "url", s.config.URL, "gen", gen)

	s.wg.Add(1)
	s.readers.Add(1)
	go s.readLoop(ctx, conn, gen, events)
}

// resubscribe sends the full live watch set. The snapshot is taken after the
// state became Connected, so any address added concurrently is covered either
// here or by the caller's own delta.
func (s *Supervisor) resubscribe() {
	addrs := s.watch.List()
	if len(addrs) == 0 {
		return
	}
	if err := s.send(usecase.ResubscribeCommand(addrs)); err != nil {
		s.log.Warn("Resubscription failed", "count", len(addrs), "err", err)
		return
	}
	s.log.Info("Resubscribed watch set", "count", len(addrs))
}

func (s *Supervisor) readLoop(ctx context.Context, conn port.FeedConn, gen uint64, events chan<- event) {
	defer s.wg.Done()
	defer s.readers.Done()
	// A frame already read is handled to completion even if Stop races it.
	handlerCtx := context.WithoutCancel(ctx)
	for {
		raw, err := conn.ReadFrame()
		if err != nil {
			select {
			case events <- event{kind: eventClosed, gen: gen, err: err}:
			case <-ctx.Done():
			}
			return
		}
		imetrics.Feed().FramesTotal.Inc()
		if herr := s.handler(handlerCtx, raw); herr != nil {
			imetrics.Feed().HandlerErrsTotal.Inc()
			imetrics.App().WarningsTotal.WithLabelValues(imetrics.ComponentFeed, "handler").Inc()
			s.log.Warn("Dropped inbound frame", "err", herr)
		}
	}
}

// scheduleReconnect applies the retry bound. It returns false once the
// supervisor has failed.
func (s *Supervisor) scheduleReconnect(cause error) bool {
	s.mu.Lock()
	s.setStateLocked(entity.StateReconnecting)
	if s.retries >= s.config.MaxRetries {
		s.setStateLocked(entity.StateFailed)
		retries := s.retries
		s.mu.Unlock()

		s.log.Error("Feed reconnect attempts exhausted, giving up", "retries", retries, "err", cause)
		imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentFeed, "retries_exhausted").Inc()
		return false
	}
	s.retries++
	retries := s.retries
	s.mu.Unlock()

	imetrics.Feed().ReconnectsTotal.Inc()
	s.log.Info("Scheduling feed reconnect", "attempt", retries, "max", s.config.MaxRetries, "delay_ms", s.config.ReconnectDelayMS)
	return true
}

// send writes cmd on the live connection. Nothing is sent unless connected.
// A failed write force-closes the connection so the reader reports it.
func (s *Supervisor) send(cmd usecase.CommandDTO) error {
	raw, err := usecase.EncodeCommand(cmd)
	if err != nil {
		return apperr.NewInternalErr("failed to encode feed command", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	connected := s.state == entity.StateConnected
	s.mu.Unlock()

	if !connected || conn == nil {
		imetrics.Feed().CommandsTotal.WithLabelValues(cmd.Method, "skipped").Inc()
		s.log.Trace("Feed not connected, command skipped", "method", cmd.Method)
		return nil
	}
	if err := conn.WriteFrame(raw); err != nil {
		imetrics.Feed().CommandsTotal.WithLabelValues(cmd.Method, "error").Inc()
		_ = conn.Close()
		return apperr.NewTransportErr("failed to send "+cmd.Method, err)
	}
	imetrics.Feed().CommandsTotal.WithLabelValues(cmd.Method, "ok").Inc()
	s.log.Trace("Sent feed command", "id", cmd.ID, "method", cmd.Method, "addresses", len(cmd.Params.Addresses))
	return nil
}

func (s *Supervisor) dropConn() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Supervisor) currentGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Supervisor) setState(state entity.ConnectionState) {
	s.mu.Lock()
	s.setStateLocked(state)
	s.mu.Unlock()
}

func (s *Supervisor) setStateLocked(state entity.ConnectionState) {
	if s.state == state {
		return
	}
	s.log.Debug("Feed state change", "from", s.state.String(), "to", state.String())
	s.state = state
	s.publishState(state)
}

func (s *Supervisor) publishState(state entity.ConnectionState) {
	for _, st := range entity.AllConnectionStates {
		v := 0.0
		if st == state {
			v = 1
		}
		imetrics.Feed().State.WithLabelValues(st.String()).Set(v)
	}
	if state == entity.StateConnected {
		imetrics.Feed().Connected.Set(1)
	} else {
		imetrics.Feed().Connected.Set(0)
	}
}
