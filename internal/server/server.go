// Package server exposes stream generation over HTTP. Every request gets
// its own Stream, so requests share no generator state.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/sink"
	"github.com/roach88/fakestream/internal/stream"
)

// MaxRecords caps n per request.
const MaxRecords = 1_000_000

// Response headers describing the generated run.
const (
	HeaderSeed         = "X-Fakestream-Seed"
	HeaderBaseSequence = "X-Fakestream-Base-Sequence"
	HeaderKind         = "X-Fakestream-Kind"
)

const contentTypeNDJSON = "application/x-ndjson"

// Server routes HTTP requests to stream generators.
type Server struct {
	router *chi.Mux
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the clock used for unpinned base sequences.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server with its routes installed.
func New(opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/streams", s.handleKinds)
	s.router.Get("/streams/{kind}", s.handleStream)
	s.router.Get("/streams/{kind}/schema", s.handleSchema)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, waiting up to five seconds for open streams.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("serving streams", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	line, err := protocol.Marshal(map[string]any{"kinds": stream.Kinds()})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(line, '\n'))
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	kind, err := stream.Lookup(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	def := kind.Definition()
	line, err := protocol.MarshalLine(protocol.NewSchema(def.Name, def.Schema, def.KeyProperties))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(line, '\n'))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "kind")
	if _, err := stream.Lookup(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	cfg, err := ConfigFromQuery(name, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.Seed == 0 {
		cfg.Seed = gofakeit.Uint64()
	}

	log := s.logger.With("request_id", middleware.GetReqID(r.Context()), "kind", name)
	st, err := stream.Build(cfg, nil, stream.WithClock(s.now), stream.WithLogger(log))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypeNDJSON)
	h.Set(HeaderKind, name)
	h.Set(HeaderSeed, strconv.FormatUint(cfg.Seed, 10))
	h.Set(HeaderBaseSequence, strconv.FormatInt(st.BaseSequence(), 10))
	w.WriteHeader(http.StatusOK)

	out := sink.NewLineSink(w)
	stats, err := sink.Drain(r.Context(), st, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Headers are gone; the client sees a truncated body.
		log.Warn("stream aborted", "messages", stats.Messages, "error", err)
		return
	}
	log.Info("stream served", "messages", stats.Messages, "duplicates", stats.Duplicates, "seed", cfg.Seed)
}

// ConfigFromQuery reads a run config from URL query parameters named like
// the YAML config keys: n, version, nested_count, duplicates,
// duplicate_sequence_delta, duplicate_likelihood, sequence, seed.
func ConfigFromQuery(kind string, q url.Values) (stream.Config, error) {
	cfg := stream.Config{Stream: kind}

	ints := []struct {
		key string
		dst *int
	}{
		{"n", &cfg.N},
		{"nested_count", &cfg.NestedCount},
		{"duplicates", &cfg.Duplicates},
	}
	for _, p := range ints {
		if raw := q.Get(p.key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return stream.Config{}, fmt.Errorf("invalid %s %q: not an integer", p.key, raw)
			}
			*p.dst = v
		}
	}

	int64s := []struct {
		key string
		dst *int64
	}{
		{"duplicate_sequence_delta", &cfg.DuplicateSequenceDelta},
		{"sequence", &cfg.Sequence},
	}
	for _, p := range int64s {
		if raw := q.Get(p.key); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return stream.Config{}, fmt.Errorf("invalid %s %q: not an integer", p.key, raw)
			}
			*p.dst = v
		}
	}

	if raw := q.Get("duplicate_likelihood"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return stream.Config{}, fmt.Errorf("invalid duplicate_likelihood %q: not an integer", raw)
		}
		cfg.DuplicateLikelihood = &v
	}
	if raw := q.Get("version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return stream.Config{}, fmt.Errorf("invalid version %q: not an integer", raw)
		}
		cfg.Version = &v
	}
	if raw := q.Get("seed"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return stream.Config{}, fmt.Errorf("invalid seed %q: not an unsigned integer", raw)
		}
		cfg.Seed = v
	}

	if cfg.N > MaxRecords {
		return stream.Config{}, fmt.Errorf("invalid n %d: at most %d records per request", cfg.N, MaxRecords)
	}
	return cfg, nil
}
