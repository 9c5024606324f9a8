// Package tcp serves the user resource over a raw TCP socket. Requests are
// routed by literal prefix of the decoded text, one connection at a time.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"tcp-user-service/internal/metrics"
	"tcp-user-service/internal/wire"
	"tcp-user-service/pkg/logger"
)

// DefaultReadBufferSize is the most bytes read from a connection.
const DefaultReadBufferSize = 1024

// HandlerFunc produces the response for one decoded request.
type HandlerFunc func(ctx context.Context, req *wire.Request) wire.Response

type route struct {
	name    string
	prefix  string
	handler HandlerFunc
}

// Options tunes a Dispatcher. Zero timeouts mean no deadline.
type Options struct {
	ReadBufferSize int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimiter    *RateLimiter
	Metrics        *metrics.Metrics
}

// Dispatcher owns the accept loop and routes each request to a handler.
type Dispatcher struct {
	routes []route
	opts   Options
	log    *zap.Logger
}

// NewDispatcher wires the user handler's routes. Order matters: the first
// matching prefix wins.
func NewDispatcher(h *UserHandler, opts Options, log *zap.Logger) *Dispatcher {
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}

	return &Dispatcher{
		routes: []route{
			{name: "create", prefix: "POST /users", handler: h.CreateUser},
			{name: "update", prefix: "PUT /users/", handler: h.UpdateUser},
			{name: "delete", prefix: "DELETE /users/", handler: h.DeleteUser},
		},
		opts: opts,
		log:  log,
	}
}

// Serve accepts connections until ctx is cancelled and handles each one
// before accepting the next. It closes ln on return.
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	d.log.Info("accepting connections", zap.String("address", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				d.log.Info("listener closed")
				return nil
			}
			d.log.Error("accept failed", zap.Error(err))
			continue
		}

		d.Handle(ctx, conn)
	}
}

// Handle serves exactly one request on conn and closes it. The request is
// whatever a single read returns; no framing is attempted.
func (d *Dispatcher) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	ctx = logger.NewConnContext(ctx, addrString(conn.RemoteAddr()))
	log := logger.WithContext(ctx, d.log)

	if d.opts.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(start.Add(d.opts.ReadTimeout))
	}

	buf := make([]byte, d.opts.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		log.Warn("read failed, dropping connection", zap.Error(err))
		return
	}

	req := wire.Decode(buf[:n])

	name, handler := d.match(req)
	var resp wire.Response
	if !d.opts.RateLimiter.Allow(ctx, clientIP(conn.RemoteAddr())) {
		name = "rate_limited"
		resp = wire.TooManyRequests()
	} else {
		resp = handler(ctx, req)
	}

	if d.opts.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(d.opts.WriteTimeout))
	}
	if _, err := conn.Write(resp.Bytes()); err != nil {
		log.Warn("write failed, dropping connection", zap.String("route", name), zap.Error(err))
		return
	}

	elapsed := time.Since(start)
	d.opts.Metrics.Record(ctx, name, resp.Code, elapsed)
	log.Info("request handled",
		zap.String("route", name),
		zap.String("method", req.Method),
		zap.String("target", req.Target),
		zap.String("proto", req.Proto),
		zap.String("host", req.Header["Host"]),
		zap.String("user_agent", req.Header["User-Agent"]),
		zap.Int("status", resp.Code),
		zap.Int("bytes_read", n),
		zap.Duration("elapsed", elapsed),
	)
}

func (d *Dispatcher) match(req *wire.Request) (string, HandlerFunc) {
	for _, r := range d.routes {
		if strings.HasPrefix(req.Raw, r.prefix) {
			return r.name, r.handler
		}
	}
	return "not_found", notFound
}

func notFound(context.Context, *wire.Request) wire.Response {
	return wire.RouteNotFound()
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
