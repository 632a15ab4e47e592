package cmd

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/judgenot0/judge-checker/config"
	"github.com/judgenot0/judge-checker/scheduler"
)

// Enqueuer hands a JSON encoded check request to the check queue.
type Enqueuer interface {
	QueueMessage(request []byte) error
}

type Server struct {
	config    *config.Config
	manager   Enqueuer
	scheduler *scheduler.Scheduler

	mu   sync.Mutex
	http *http.Server
}

func NewServer(config *config.Config, queue Enqueuer, scheduler *scheduler.Scheduler) *Server {
	return &Server{
		config:    config,
		manager:   queue,
		scheduler: scheduler,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "failed to listen on %s", port)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
