package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/victorarias/todos/internal/logging"
	"github.com/victorarias/todos/internal/session"
)

type Server struct {
	sessions      *session.Manager
	logger        *slog.Logger
	views         *views
	importSchema  *jsonschema.Schema
	pruneInterval time.Duration
	now           func() time.Time
}

type Options struct {
	// PruneInterval is how often expired sessions are removed while serving.
	// Zero disables the background pruner.
	PruneInterval time.Duration
}

func NewServer(sessions *session.Manager, logger *slog.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = logging.New("info", "", nil)
	}
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	schema, err := compileImportSchema()
	if err != nil {
		return nil, err
	}
	return &Server{
		sessions:      sessions,
		logger:        logger,
		views:         v,
		importSchema:  schema,
		pruneInterval: opts.PruneInterval,
		now:           time.Now,
	}, nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go s.sessions.RunPruner(ctx, s.pruneInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler returns the full HTTP handler, including request logging.
func (s *Server) Handler() http.Handler {
	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("GET /lists", s.handleLists)
	app.HandleFunc("GET /lists/new", s.handleNewList)
	app.HandleFunc("POST /lists", s.handleCreateList)
	app.HandleFunc("GET /lists/{id}", s.handleShowList)
	app.HandleFunc("GET /lists/{id}/edit", s.handleEditList)
	app.HandleFunc("POST /lists/{id}", s.handleUpdateList)
	app.HandleFunc("POST /lists/{id}/delete", s.handleDeleteList)
	app.HandleFunc("POST /lists/{id}/todos", s.handleAddTodo)
	app.HandleFunc("POST /lists/{id}/todos/{todo_id}", s.handleUpdateTodo)
	app.HandleFunc("POST /lists/{id}/todos/{todo_id}/delete", s.handleDeleteTodo)
	app.HandleFunc("POST /lists/{id}/complete_all", s.handleCompleteAll)
	app.HandleFunc("GET /api/lists", s.handleAPILists)
	app.HandleFunc("POST /api/lists/import", s.handleAPIImport)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /styles.css", s.handleStatic)
	mux.HandleFunc("GET /app.js", s.handleStatic)
	mux.Handle("/", s.sessions.Middleware(app))
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	if s.logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.sessions.Store().Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{Error: ErrorPayload{Code: code, Message: message}}
	s.writeJSON(w, status, resp)
}

// pathID parses a numeric path wildcard. Anything unparsable is reported as
// not ok, which callers treat the same as an unknown id.
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
