package session

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/victorarias/todos/internal/logging"
	"github.com/victorarias/todos/internal/todo"
)

const (
	DefaultCookieName    = "todos_session"
	DefaultMaxAge        = 24 * time.Hour
	DefaultTouchInterval = 5 * time.Minute
)

type Options struct {
	CookieName string
	// Secret signs the cookie. A random secret is generated when empty, which
	// invalidates every cookie on restart.
	Secret []byte
	// MaxAge is how long an idle session survives.
	MaxAge time.Duration
	// TouchInterval bounds how often an unmodified session is re-saved to
	// extend its lifetime.
	TouchInterval time.Duration
	Secure        bool
}

type Manager struct {
	store  Store
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

type contextKey struct{}

func NewManager(store Store, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.New("info", "", nil)
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.TouchInterval <= 0 {
		opts.TouchInterval = DefaultTouchInterval
	}
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, 32)
		if _, err := rand.Read(opts.Secret); err != nil {
			panic("session: read random secret: " + err.Error())
		}
		logger.Warn("no session secret configured, cookies will not survive a restart")
	}
	return &Manager{
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) Store() Store {
	return m.store
}

func (m *Manager) MaxAge() time.Duration {
	return m.opts.MaxAge
}

// Load resolves the session for r. Missing, forged, expired or unreadable
// sessions all come back as a fresh empty session rather than an error; only
// store failures are returned.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return newSession(uuid.NewString()), nil
	}
	token, ok := m.verify(cookie.Value)
	if !ok {
		m.logger.Debug("rejecting session cookie with bad signature")
		return newSession(uuid.NewString()), nil
	}

	rec, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newSession(token), nil
		}
		return nil, err
	}
	if m.expired(rec.UpdatedAt) {
		if err := m.store.Delete(ctx, token); err != nil {
			m.logger.Warn("delete expired session failed", "error", err)
		}
		return newSession(uuid.NewString()), nil
	}

	sess := newSession(token)
	if err := json.Unmarshal(rec.Payload, &sess.data); err != nil {
		m.logger.Warn("discarding unreadable session", "error", err)
		return sess, nil
	}
	if sess.data.Lists == nil {
		sess.data.Lists = []todo.List{}
	}
	sess.persisted = true
	sess.updatedAt = rec.UpdatedAt
	return sess, nil
}

// Save writes the session when it changed, or when it is old enough that its
// expiry should be pushed back.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	now := m.now()
	touch := sess.persisted && now.Sub(sess.updatedAt) >= m.opts.TouchInterval
	if !sess.dirty && !touch {
		return nil
	}
	payload, err := json.Marshal(sess.data)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, sess.token, payload, now); err != nil {
		return err
	}
	sess.dirty = false
	sess.persisted = true
	sess.updatedAt = now
	return nil
}

// Middleware loads the session before next runs and saves it before the
// buffered response is sent. A failed save answers 500.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := m.Load(ctx, r)
		if err != nil {
			m.logger.Error("load session failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.opts.CookieName,
			Value:    m.sign(sess.token),
			Path:     "/",
			MaxAge:   int(m.opts.MaxAge / time.Second),
			HttpOnly: true,
			Secure:   m.opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		buf := newBufferedResponse()
		next.ServeHTTP(buf, r.WithContext(WithSession(ctx, sess)))

		if err := m.Save(ctx, sess); err != nil {
			m.logger.Error("save session failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		buf.flush(w)
	})
}

// bufferedResponse holds a handler's response until the session is saved, so
// a failed save never reaches the client as a success.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append(dst[k], v...)
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// Prune deletes sessions idle for longer than MaxAge.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	return m.store.Prune(ctx, m.now().Add(-m.opts.MaxAge))
}

// RunPruner prunes every interval until ctx is done.
func (m *Manager) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Prune(ctx)
			if err != nil {
				m.logger.Warn("prune sessions failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Info("pruned expired sessions", "count", n)
			}
		}
	}
}

func (m *Manager) expired(updatedAt time.Time) bool {
	return m.now().Sub(updatedAt) > m.opts.MaxAge
}

func (m *Manager) sign(token string) string {
	return token + "." + m.mac(token)
}

func (m *Manager) verify(value string) (string, bool) {
	token, sig, ok := strings.Cut(value, ".")
	if !ok || token == "" {
		return "", false
	}
	if _, err := uuid.Parse(token); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.mac(token))) {
		return "", false
	}
	return token, true
}

func (m *Manager) mac(token string) string {
	h := hmac.New(sha256.New, m.opts.Secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
