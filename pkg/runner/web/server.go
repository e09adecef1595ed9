// Package web serves the task board over HTTP for browser and remote clients.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/store"
)

// Authenticator maps an Authorization header to an account id.
type Authenticator interface {
	FromBearerHeader(string) (string, error)
}

// Opener opens the store for an account.
type Opener func(ctx context.Context, account string) (store.Store, error)

// LocalAccount is the account used when no Authenticator is configured.
const LocalAccount = "local"

// Server exposes one task service per account.
type Server struct {
	Open Opener
	// Auth may be nil, in which case every request uses LocalAccount.
	Auth Authenticator
	Log  *log.Logger

	Addr            string
	OnListening     func(net.Addr)
	ShutdownTimeout time.Duration

	mu       sync.Mutex
	services map[string]*app.Service
}

func (s *Server) logger() *log.Logger {
	if s.Log != nil {
		return s.Log
	}
	return log.StandardLogger()
}

// service returns the cached service for account, opening its store on first
// use. Stores are opened without holding the lock; if two requests race to
// open the same account, the loser's store is closed.
func (s *Server) service(ctx context.Context, account string) (*app.Service, error) {
	s.mu.Lock()
	svc, ok := s.services[account]
	s.mu.Unlock()
	if ok {
		return svc, nil
	}
	if s.Open == nil {
		return nil, errors.New("web: no store opener configured")
	}
	st, err := s.Open(ctx, account)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.services[account]; ok {
		_ = st.Close()
		return svc, nil
	}
	if s.services == nil {
		s.services = make(map[string]*app.Service)
	}
	svc = &app.Service{Store: st, Log: s.logger().WithField("account", account)}
	s.services[account] = svc
	return svc, nil
}

// Close releases every opened store.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for account, svc := range s.services {
		if err := svc.Store.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.services, account)
	}
	return errors.Join(errs...)
}

// Handler builds the echo instance with every route registered.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	Register(e, s)
	return e
}

// Serve listens on Addr until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if s.OnListening != nil {
		s.OnListening(ln.Addr())
	}

	e := s.Handler()
	e.Listener = ln
	defer func() { _ = s.Close() }()

	go func() {
		<-ctx.Done()
		timeout := s.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	s.logger().WithField("addr", ln.Addr().String()).Info("serving task board")
	if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
