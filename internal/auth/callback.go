package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultCallbackPort is the loopback port the public redirect host forwards to.
const DefaultCallbackPort = 8765

const callbackOK = "OAuth OK - you may close this tab."

// CallbackServer captures the code query parameter of the OAuth redirect on a
// loopback listener. It keeps only the latest code.
type CallbackServer struct {
	addr  string
	log   logging.Logger
	codes chan string

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// NewCallbackServer listens on 127.0.0.1:port once started. Port 0 picks a
// free port.
func NewCallbackServer(port int, log logging.Logger) *CallbackServer {
	return &CallbackServer{
		addr:  net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		log:   log,
		codes: make(chan string, 1),
	}
}

func (s *CallbackServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.HandleFunc("/*", s.handleRedirect)
	return r
}

func (s *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		s.log.Warn(r.Context(), "redirect without code", "path", r.URL.Path, "error", q.Get("error"))
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	drain(s.codes)
	s.codes <- code
	s.mu.Unlock()

	s.log.Info(r.Context(), "authorization code received")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, callbackOK)
}

func (s *CallbackServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("callback server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "callback server stopped", "error", err)
		}
	}()
	s.log.Debug(ctx, "callback server listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, valid after Start.
func (s *CallbackServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *CallbackServer) Codes() <-chan string { return s.codes }

// Stop shuts the listener down. It is safe to call more than once.
func (s *CallbackServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
