// Package httpserver is the REST edge of the car registry: routing, auth
// gating, problem-detail error mapping and lifecycle.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/consul/api"

	"github.com/CarVault/CarVault/internal/car"
	"github.com/CarVault/CarVault/internal/common/auth"
	"github.com/CarVault/CarVault/internal/common/config"
	"github.com/CarVault/CarVault/internal/common/discovery"
	"github.com/CarVault/CarVault/internal/common/logger"
)

// Deps are the collaborators the server needs. Consul is optional; when
// nil the server skips registration.
type Deps struct {
	Config      *config.Config
	Log         logger.Logger
	Cars        *car.Service
	Tokens      *auth.TokenService
	Credentials *auth.CredentialStore
	Consul      *api.Client
}

type Server struct {
	cfg         *config.Config
	log         logger.Logger
	cars        *car.Service
	tokens      *auth.TokenService
	credentials *auth.CredentialStore
	consul      *api.Client

	handler http.Handler
}

func New(deps Deps) *Server {
	s := &Server{
		cfg:         deps.Config,
		log:         deps.Log,
		cars:        deps.Cars,
		tokens:      deps.Tokens,
		credentials: deps.Credentials,
		consul:      deps.Consul,
	}
	s.handler = s.routes()
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// When a Consul client is present the instance registers on start and
// deregisters on the way out.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var registry *discovery.ServiceRegistry
	if s.consul != nil {
		registry = discovery.NewServiceRegistry(s.consul)
		serviceID := fmt.Sprintf("%s-%s", s.cfg.Server.Name, uuid.NewString())
		if err := registry.Register(serviceID, s.cfg.Server.Name, s.cfg.Server.Host, s.cfg.Server.HTTPPort); err != nil {
			s.log.Warnf("Consul registration failed, continuing without discovery: %v", err)
			registry = nil
		} else {
			s.log.Infof("Registered with consul as %s", serviceID)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			s.log.Warnf("Consul deregistration failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
