package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpwire/internal/request"
	"httpwire/internal/response"
	"httpwire/internal/server"
)

func startEchoServer(t *testing.T) int {
	t.Helper()
	srv, err := server.Bind("127.0.0.1:0", func(req *request.Request) (*response.Response, error) {
		resp := response.New(response.StatusOK)
		resp.Headers.Set("content-type", "text/plain")
		resp.Headers.Set("connection", "close")
		resp.Body = []byte("target=" + req.RequestLine.Target)
		return resp, nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	go func() { _ = srv.ListenAndServe() }()
	return srv.ListenAddr().(*net.TCPAddr).Port
}

func TestSend(t *testing.T) {
	port := startEchoServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := request.New(request.MethodGet, "/hello")
	req.Headers.Set("host", "localhost")

	c := New(WithPort(port))
	resp, err := c.Send(ctx, "127.0.0.1", req)
	require.NoError(t, err)
	assert.Equal(t, response.StatusOK, resp.StatusLine.Code)
	assert.Equal(t, "target=/hello", string(resp.Body))
}

func TestSendResolverCache(t *testing.T) {
	port := startEchoServer(t)
	c := New(WithPort(port))

	ctx := context.Background()
	req := request.New(request.MethodGet, "/")
	req.Headers.Set("host", "localhost")

	// Second send hits the cached lookup; behavior is identical.
	for range 2 {
		resp, err := c.Send(ctx, "127.0.0.1", req)
		require.NoError(t, err)
		assert.Equal(t, response.StatusOK, resp.StatusLine.Code)
	}
	_, ok := c.cache.Get("127.0.0.1")
	assert.True(t, ok)
}

func TestSendDialFailure(t *testing.T) {
	// A port with nothing listening: all attempts fail and the error
	// surfaces to the caller.
	c := New(WithPort(1))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req := request.New(request.MethodGet, "/")
	_, err := c.Send(ctx, "127.0.0.1", req)
	assert.Error(t, err)
}

func TestSendResolveFailure(t *testing.T) {
	c := New()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req := request.New(request.MethodGet, "/")
	_, err := c.Send(ctx, "definitely-not-a-real-host.invalid", req)
	assert.Error(t, err)
}
