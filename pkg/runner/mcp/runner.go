package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/app"
)

// Transport selects how MCP clients reach the board.
type Transport string

const (
	// TransportStdio speaks MCP over stdin/stdout, the way desktop clients
	// launch local servers.
	TransportStdio Transport = "stdio"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP Transport = "http"
)

const (
	// DefaultAddr stays clear of the JSON API's default port.
	DefaultAddr = "127.0.0.1:8765"
	DefaultPath = "/mcp"

	serverName   = "taskboard"
	instructions = "Read and edit the categorized task board. Task ids accept any unique prefix. " +
		"ONGOING tasks are unchecked at the first read after midnight, Australia/Sydney."
)

// Runner serves the board to MCP clients.
type Runner struct {
	Service *app.Service
	Version string

	Transport Transport
	// Addr and Path apply to TransportHTTP.
	Addr            string
	Path            string
	OnListening     func(net.Addr)
	ShutdownTimeout time.Duration
}

// Do serves until ctx is done (HTTP) or stdin closes (stdio).
func (r Runner) Do(ctx context.Context) error {
	if r.Service == nil || r.Service.Store == nil {
		return errors.New("mcp: no task store configured")
	}
	srv := r.newServer()

	switch r.Transport {
	case "", TransportStdio:
		return server.ServeStdio(srv)
	case TransportHTTP:
		return r.serveHTTP(ctx, srv)
	}
	return fmt.Errorf("mcp: unknown transport %q (expected stdio or http)", r.Transport)
}

func (r Runner) newServer() *server.MCPServer {
	version := r.Version
	if version == "" {
		version = "dev"
	}
	srv := server.NewMCPServer(
		serverName,
		version,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithResourceRecovery(),
		server.WithRecovery(),
	)
	svc := NewService(r.Service)
	registerResources(srv, svc)
	registerTools(srv, svc)
	return srv
}

// Endpoint returns Path with a leading slash, or DefaultPath.
func (r Runner) Endpoint() string {
	path := strings.TrimSpace(r.Path)
	if path == "" {
		return DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// handler mounts the streamable transport on an echo instance.
func (r Runner) handler(srv *server.MCPServer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Any(r.Endpoint(), echo.WrapHandler(server.NewStreamableHTTPServer(srv)))
	return e
}

func (r Runner) serveHTTP(ctx context.Context, srv *server.MCPServer) error {
	addr := r.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if r.OnListening != nil {
		r.OnListening(ln.Addr())
	}

	e := r.handler(srv)
	e.Listener = ln
	go func() {
		<-ctx.Done()
		timeout := r.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": ln.Addr().String(), "path": r.Endpoint()}).Info("serving MCP")
	if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
