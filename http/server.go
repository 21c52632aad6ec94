package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/fwojciec/metaverify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout is the time given for outstanding requests to finish
// before the server shuts down.
const ShutdownTimeout = 5 * time.Second

// maxRequestBodySize caps the JSON body accepted by /extract.
const maxRequestBodySize = 1 << 20

//go:embed assets/index.html
var indexHTML []byte

// Server exposes the /extract API and the verifier page over HTTP.
type Server struct {
	ln      net.Listener
	server  *http.Server
	router  chi.Router
	handler http.Handler

	inspector metaverify.Inspector
	logger    *slog.Logger
	limiter   *ClientLimiter

	// trustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP instead of the connection.
	trustProxy bool

	// Addr is the bind address for the listener. Set before calling Open.
	Addr string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit limits each client to rps /extract requests per second with
// the given burst. A zero rps disables limiting.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = NewClientLimiter(rps, burst)
	}
}

// WithTrustedProxy takes the client address used for rate limiting and logs
// from X-Forwarded-For or X-Real-IP. Only enable it behind a reverse proxy
// that overwrites those headers; otherwise clients can pick their own key.
func WithTrustedProxy() ServerOption {
	return func(s *Server) {
		s.trustProxy = true
	}
}

// NewServer returns a new Server that serves inspections from inspector.
func NewServer(inspector metaverify.Inspector, opts ...ServerOption) *Server {
	s := &Server{
		server:    &http.Server{ReadHeaderTimeout: 10 * time.Second},
		router:    chi.NewRouter(),
		inspector: inspector,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.trustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.requestID)
	s.router.Use(s.logRequests)
	s.router.Use(s.recoverPanics)

	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.With(s.rateLimit).Post("/extract", s.handleExtract)

	s.handler = otelhttp.NewHandler(s.router, "metaverify")
	s.server.Handler = s.handler

	return s
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Open begins listening on the bind address.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	return nil
}

// URL returns the local base URL of the running server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Serve handles requests on the opened listener until ctx is canceled, then
// shuts down gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server not open")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", "addr", s.ln.Addr().String())
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.Close()
	})
	return g.Wait()
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// extractRequest is the body accepted by POST /extract.
type extractRequest struct {
	URL *string `json:"url"`
}

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		s.Error(w, r, metaverify.Errorf(metaverify.EINVALID, "Invalid request body: expected a JSON object with a url field."))
		return
	}
	if req.URL == nil {
		s.Error(w, r, metaverify.Errorf(metaverify.EINVALID, "URL parameter is missing"))
		return
	}

	inspection, err := s.inspector.Inspect(r.Context(), *req.URL)
	if err != nil {
		s.Error(w, r, err, "url", *req.URL)
		return
	}

	s.logger.Info("extracted",
		"request_id", RequestIDFromContext(r.Context()),
		"url", inspection.RequestedURL,
		"final_url", inspection.URL,
		"meta_tags", len(inspection.Result.Metadata),
	)
	writeJSON(w, http.StatusOK, inspection.Result)
}

// internalErrorMessage is shown to users instead of the details of
// unclassified failures.
const internalErrorMessage = "An unexpected server error occurred while processing the URL."

// Error logs err with request context and writes it as a JSON error payload.
// Extra attrs are added to the log line only.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error, attrs ...any) {
	code, message := metaverify.ErrorCode(err), metaverify.ErrorMessage(err)
	if code == metaverify.EINTERNAL {
		message = internalErrorMessage
	}

	args := []any{
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"err", err,
	}
	s.logger.Error("request failed", append(args, attrs...)...)

	writeJSON(w, ErrorStatusCode(code), &ErrorResponse{Error: message})
}

// codes maps application error codes to HTTP status codes. Failures reported
// by the remote site are the caller's problem, so EHTTP maps to 400.
var codes = map[string]int{
	metaverify.EINVALID:    http.StatusBadRequest,
	metaverify.ECONNECTION: http.StatusBadRequest,
	metaverify.EHTTP:       http.StatusBadRequest,
	metaverify.ETIMEOUT:    http.StatusGatewayTimeout,
	metaverify.EUNEXPECTED: http.StatusInternalServerError,
	metaverify.EINTERNAL:   http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID assigned by the server.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID assigns every request a random ID and echoes it in X-Request-Id.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func(begin time.Time) {
			s.logger.Info("http request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(begin),
			)
		}(time.Now())
		next.ServeHTTP(ww, r)
	})
}

// recoverPanics turns a panic into an EINTERNAL JSON response. A panic after
// the response has started is only logged.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := fmt.Errorf("panic: %v", rec)
			if ww.Status() != 0 {
				s.logger.Error("panic after response started",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"status", ww.Status(),
					"err", err,
					"stack", string(debug.Stack()),
				)
				return
			}
			s.Error(ww, r, err, "stack", string(debug.Stack()))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, &ErrorResponse{Error: "Too many requests. Please slow down."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey returns the client IP, without port.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
