// Package client implements the minimal send path: resolve a host,
// open a transport to port 80, exchange one request and response.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/avast/retry-go"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"httpwire/internal/conn"
	"httpwire/internal/request"
	"httpwire/internal/response"
)

var ErrHostNotFound = errors.New("client: host not found")

const (
	resolveTTL   = 30 * time.Second
	dialAttempts = 3
	dialBackoff  = 100 * time.Millisecond
)

type Client struct {
	log      *zap.Logger
	resolver *net.Resolver
	cache    *gocache.Cache
	port     string
}

type Option func(*Client)

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPort overrides the default port 80, mostly for tests.
func WithPort(port int) Option {
	return func(c *Client) { c.port = fmt.Sprintf("%d", port) }
}

func New(opts ...Option) *Client {
	c := &Client{
		log:      zap.NewNop(),
		resolver: net.DefaultResolver,
		cache:    gocache.New(resolveTTL, 2*resolveTTL),
		port:     "80",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send writes one request to host and reads one response. Every
// failure surfaces to the caller.
func (c *Client) Send(ctx context.Context, host string, req *request.Request) (resp *response.Response, err error) {
	addr, err := c.resolve(ctx, host)
	if err != nil {
		return nil, err
	}

	nc, err := c.dial(ctx, net.JoinHostPort(addr, c.port))
	if err != nil {
		return nil, err
	}

	cc := conn.NewClientConn(nc, nc)
	defer func() { _ = cc.Close() }()

	if err := cc.WriteRequest(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	resp, err = cc.ReadResponse()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// resolve returns one address for host, remembering lookups for a
// short TTL.
func (c *Client) resolve(ctx context.Context, host string) (string, error) {
	if cached, ok := c.cache.Get(host); ok {
		return cached.(string), nil
	}
	addrs, err := c.resolver.LookupHost(ctx, host)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("%w: %q", ErrHostNotFound, host)
	}
	c.cache.SetDefault(host, addrs[0])
	return addrs[0], nil
}

func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	var nc net.Conn
	err := retry.Do(
		func() error {
			var d net.Dialer
			var err error
			nc, err = d.DialContext(ctx, "tcp", addr)
			if err != nil {
				c.log.Debug("dial failed", zap.String("addr", addr), zap.Error(err))
			}
			return err
		},
		retry.Attempts(dialAttempts),
		retry.Delay(dialBackoff),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", addr, err)
	}
	return nc, nil
}

// Send is the package-level convenience over a throwaway client.
func Send(ctx context.Context, host string, req *request.Request) (*response.Response, error) {
	return New().Send(ctx, host, req)
}
