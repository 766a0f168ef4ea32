package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/availdep/pkg/cache"
	availerrors "github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/observability"
	"github.com/matzehuels/availdep/pkg/pipeline"
	"github.com/matzehuels/availdep/pkg/source"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve course graphs over HTTP",
		Long: `Serve answers graph requests for the courses of the configured source:

  GET /courses/{courseID}/graph?full=yes|no&format=json|ancestors|dot
  GET /courses/{courseID}/graph.svg?full=yes|no&highlight={nodeID}
  GET /courses/{courseID}/ancestors/{nodeID}?full=yes|no
  GET /healthz

Every course route accepts refresh=yes to rebuild instead of reading the cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+defaultServerAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	logger := loggerFromContext(ctx)

	src, closeSrc, err := c.newSource(ctx)
	if err != nil {
		return err
	}
	defer closeSrc()

	ch, err := c.newCache(noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	s, err := newServer(src, ch, c.Config, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "source", c.Config.Source.Backend, "cache", c.Config.Cache.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// =============================================================================
// Server
// =============================================================================

// server serves graphs of the courses in src.
type server struct {
	src    source.Source
	cache  cache.Cache
	cfg    *Config
	ttl    time.Duration
	logger *log.Logger
}

func newServer(src source.Source, ch cache.Cache, cfg *Config, logger *log.Logger) (*server, error) {
	ttl, err := cfg.ttl()
	if err != nil {
		return nil, availerrors.Wrap(availerrors.ErrCodeInvalidInput, err, "config")
	}
	return &server{src: src, cache: ch, cfg: cfg, ttl: ttl, logger: logger}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/courses/{courseID}", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/graph.svg", s.handleSVG)
		r.Get("/ancestors/{nodeID}", s.handleAncestors)
	})
	return r
}

// handleGraph serves the graph in one of the text formats.
func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if format == pipeline.FormatSVG {
		s.fail(w, r, availerrors.New(availerrors.ErrCodeInvalidFormat, "use graph.svg for SVG output"))
		return
	}

	res, err := s.execute(r, format, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	contentType := "application/json"
	if format == pipeline.FormatDOT {
		contentType = "text/vnd.graphviz; charset=utf-8"
	}
	writeBytes(w, contentType, res.Artifacts[format])
}

// handleSVG serves the rendered graph, dimmed around ?highlight= if given.
func (s *server) handleSVG(w http.ResponseWriter, r *http.Request) {
	res, err := s.execute(r, pipeline.FormatSVG, r.URL.Query().Get("highlight"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeBytes(w, "image/svg+xml", res.Artifacts[pipeline.FormatSVG])
}

// handleAncestors serves the ancestry of one node.
func (s *server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if err := availerrors.ValidateNodeID(nodeID); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.execute(r, pipeline.FormatAncestors, nodeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeBytes(w, "application/json", res.Artifacts[pipeline.FormatAncestors])
}

// execute fetches the course named in the route and runs the pipeline for
// one format. Graphs of different courses live under separate cache
// prefixes.
func (s *server) execute(r *http.Request, format, highlight string) (*pipeline.Result, error) {
	ctx := r.Context()
	courseID, err := availerrors.ValidateCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		return nil, err
	}
	mode, err := pipeline.ParseMode(r.URL.Query().Get("full"))
	if err != nil {
		return nil, err
	}
	refresh, err := parseRefresh(r.URL.Query().Get("refresh"))
	if err != nil {
		return nil, err
	}

	records, err := s.src.Fetch(ctx, courseID)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("request_id", requestID(ctx), "course", courseID)
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), fmt.Sprintf("course:%d:", courseID))
	runner := pipeline.NewRunner(s.cache, keyer, logger)
	runner.TTL = s.ttl

	opts := s.cfg.pipelineOptions(mode)
	opts.Formats = []string{format}
	opts.Highlight = highlight
	opts.Refresh = refresh
	return runner.Execute(ctx, records, opts)
}

// parseRefresh parses the refresh=yes|no parameter. Empty means no.
func parseRefresh(s string) (bool, error) {
	switch s {
	case "yes":
		return true, nil
	case "no", "":
		return false, nil
	}
	return false, availerrors.New(availerrors.ErrCodeInvalidInput, "invalid refresh %q (must be yes or no)", s)
}

// =============================================================================
// Errors
// =============================================================================

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusCode maps error codes to HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case availerrors.IsInvalid(err):
		return http.StatusBadRequest
	}
	switch availerrors.GetCode(err) {
	case availerrors.ErrCodeNotFound, availerrors.ErrCodeUnknownNode:
		return http.StatusNotFound
	case availerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	observability.HTTP().OnError(ctx, r.Method, routePattern(r), err)

	status := statusCode(err)
	code := string(availerrors.GetCode(err))
	msg := availerrors.UserMessage(err)
	if code == "" {
		code = string(availerrors.ErrCodeInternal)
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", requestID(ctx), "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg, RequestID: requestID(ctx)}})
}

// =============================================================================
// Middleware
// =============================================================================

type requestIDKey struct{}

// withRequestID propagates the caller's X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// requestID returns the id assigned by withRequestID, or "".
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// instrument reports every request to the HTTP observability hooks. The
// route pattern is only known after routing, so both events fire once the
// handler returns.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		hooks := observability.HTTP()
		route := routePattern(r)
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
	})
}

// routePattern returns the matched chi pattern, falling back to the path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
