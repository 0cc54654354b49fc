package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"httpwire/internal/conn"
	"httpwire/internal/httpver"
	"httpwire/internal/request"
	"httpwire/internal/response"
	"httpwire/internal/workerpool"
)

// Handler maps a request to a response. Any error surfaces to the
// peer as a bare 500. Handlers must not retain the request past the
// call.
type Handler func(req *request.Request) (*response.Response, error)

type Server struct {
	Addr     string
	listener net.Listener
	closed   atomic.Bool
	handler  Handler
	log      *zap.Logger
	pool     *workerpool.Pool
	metrics  *metrics
}

type Option func(*Server)

// WithLogger installs the access/error logger. Default is a nop.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithWorkerPool dispatches connection loops through a bounded
// executor instead of a goroutine per accept.
func WithWorkerPool(workers int) Option {
	return func(s *Server) { s.pool = workerpool.New(workers, workers*2) }
}

// WithRegisterer attaches the server's collectors to reg. By default
// they land in a private registry, so metrics are collected but not
// exposed anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Server) { s.metrics = newMetrics(reg) }
}

// Bind acquires the listening transport. Serving starts with
// ListenAndServe.
func Bind(addr string, handler Handler, opts ...Option) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Addr:     addr,
		listener: l,
		handler:  handler,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newMetrics(prometheus.NewRegistry())
	}
	return s, nil
}

// Serve binds port and starts the accept loop on its own goroutine,
// returning immediately.
func Serve(port int, handler Handler, opts ...Option) (*Server, error) {
	s, err := Bind(fmt.Sprintf(":%d", port), handler, opts...)
	if err != nil {
		return nil, err
	}
	go func() { _ = s.ListenAndServe() }()
	return s, nil
}

// ListenAddr is the bound address, useful when Bind was given port 0.
func (s *Server) ListenAddr() net.Addr {
	return s.listener.Addr()
}

// Close is idempotent. It stops the listener; connections already
// being served run their loop to completion.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.listener.Close()
	if s.pool != nil {
		s.pool.Shutdown()
	}
	return err
}

// ListenAndServe accepts until the listener is closed. An individual
// accept failure is logged and counted, never fatal.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", zap.String("addr", s.listener.Addr().String()))
	for {
		c, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.metrics.acceptErrors.Inc()
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		if s.pool != nil {
			if err := s.pool.Submit(func() { s.handle(c) }); err != nil {
				_ = c.Close()
				return nil
			}
		} else {
			go s.handle(c)
		}
	}
}

// handle runs the per-connection loop: read a request, dispatch it,
// write the response, then either iterate or close per the
// persistent-connection rules. Each connection is owned by exactly
// this goroutine.
func (s *Server) handle(nc net.Conn) {
	c := conn.NewServerConn(nc, nc)
	defer func() { _ = c.Close() }()

	s.metrics.activeConns.Inc()
	defer s.metrics.activeConns.Dec()

	log := s.log.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("remote", nc.RemoteAddr().String()),
	)
	log.Debug("connection opened")
	defer log.Debug("connection closed")

	for {
		start := time.Now()

		req, err := c.ReadRequest()
		if err != nil {
			if peerGone(err) {
				return
			}
			log.Warn("bad request", zap.Error(err))
			s.try500(c, start)
			return
		}

		resp, err := s.handler(req)
		if err != nil {
			log.Error("handler failed", zap.Error(err))
			s.try500(c, start)
			return
		}

		if err := c.WriteResponse(resp); err != nil {
			log.Warn("write failed", zap.Error(err))
			s.try500(c, start)
			return
		}

		s.metrics.observeRequest(resp.StatusLine.Code, time.Since(start).Seconds())
		log.Info("request served",
			zap.String("method", string(req.RequestLine.Method)),
			zap.String("target", req.RequestLine.Target),
			zap.Int("status", int(resp.StatusLine.Code)),
			zap.Duration("duration", time.Since(start)),
		)

		if shouldClose(req, resp) {
			return
		}
	}
}

// try500 writes the canonical failure response best effort and gives
// up on the connection.
func (s *Server) try500(c *conn.ServerConn, start time.Time) {
	resp := response.InternalError()
	_ = c.WriteResponse(resp)
	s.metrics.observeRequest(resp.StatusLine.Code, time.Since(start).Seconds())
}

// peerGone reports errors that mean the other side went away before
// or while sending: a clean close rather than a protocol failure.
func peerGone(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

var http10 = httpver.Version{Major: 1, Minor: 0}

// shouldClose applies the persistent-connection rules: HTTP/1.0
// closes unless the request opted into keep-alive, and either side
// saying "close" wins.
func shouldClose(req *request.Request, resp *response.Response) bool {
	if req.RequestLine.Version == http10 &&
		!req.Headers.ContainsToken("Connection", "keep-alive") {
		return true
	}
	if req.Headers.ContainsToken("Connection", "close") {
		return true
	}
	return resp.Headers.ContainsToken("Connection", "close")
}
