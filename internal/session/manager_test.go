package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/victorarias/todos/internal/logging"
	"github.com/victorarias/todos/internal/todo"
)

func newTestManager(store Store) *Manager {
	return NewManager(store, Options{Secret: []byte("test-secret")}, logging.Discard())
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestMiddlewarePersistsModifiedSession(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)

	write := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		lists, _, err := todo.CreateList(sess.Lists(), "Groceries", time.Now())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		sess.SetLists(lists)
		sess.SetSuccess("The list has been created.")
	}))
	rec := httptest.NewRecorder()
	write.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lists", nil))
	cookie := cookieFrom(t, rec)
	if !cookie.HttpOnly {
		t.Fatalf("cookie should be HttpOnly")
	}

	var notice Notice
	var names []string
	read := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		notice = sess.TakeNotice()
		for _, l := range sess.Lists() {
			names = append(names, l.Name)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/lists", nil)
	req.AddCookie(cookie)
	read.ServeHTTP(httptest.NewRecorder(), req)

	if notice.Success != "The list has been created." {
		t.Fatalf("expected success notice, got %+v", notice)
	}
	if len(names) != 1 || names[0] != "Groceries" {
		t.Fatalf("unexpected lists %v", names)
	}

	// The notice was consumed by the previous page view.
	req = httptest.NewRequest(http.MethodGet, "/lists", nil)
	req.AddCookie(cookie)
	read.ServeHTTP(httptest.NewRecorder(), req)
	if !notice.Empty() {
		t.Fatalf("notice should be shown once, got %+v", notice)
	}
}

func TestUnmodifiedNewSessionIsNotStored(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	h := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	records, _ := store.List(context.Background())
	if len(records) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(records))
	}
}

func TestTamperedCookieStartsFreshSession(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	token := "3b241101-e2bb-4255-8caa-b5b2c6bbcd4a"
	_ = store.Put(ctx, token, []byte(`{"lists":[{"id":1,"name":"secret","todos":[]}]}`), time.Now())

	tests := map[string]string{
		"no signature":    token,
		"wrong signature": token + ".deadbeef",
		"other secret":    NewManager(store, Options{Secret: []byte("other")}, logging.Discard()).sign(token),
		"not a uuid":      "abc." + mgr.mac("abc"),
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: value})
			sess, err := mgr.Load(ctx, req)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if sess.Token() == token {
				t.Fatalf("forged cookie must not resolve to stored session")
			}
			if len(sess.Lists()) != 0 {
				t.Fatalf("expected empty session")
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: mgr.sign(token)})
	sess, err := mgr.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Token() != token || len(sess.Lists()) != 1 {
		t.Fatalf("signed cookie should resolve stored session")
	}
}

func TestExpiredSessionIsDiscarded(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, Options{Secret: []byte("s"), MaxAge: time.Hour}, logging.Discard())
	ctx := context.Background()

	token := "0f8fad5b-d9cb-469f-a165-70867728950e"
	_ = store.Put(ctx, token, []byte(`{"lists":[{"id":1,"name":"old","todos":[]}]}`), time.Now().Add(-2*time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: mgr.sign(token)})
	sess, err := mgr.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Token() == token || len(sess.Lists()) != 0 {
		t.Fatalf("expired session should not be reused")
	}
	if _, err := store.Get(ctx, token); err == nil {
		t.Fatalf("expired session should be deleted")
	}
}

func TestManagerPrune(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, Options{Secret: []byte("s"), MaxAge: time.Hour}, logging.Discard())
	ctx := context.Background()
	_ = store.Put(ctx, "a", []byte(`{}`), time.Now().Add(-3*time.Hour))
	_ = store.Put(ctx, "b", []byte(`{}`), time.Now())

	n, err := mgr.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
}

func TestSaveTouchesStaleSession(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, Options{Secret: []byte("s"), TouchInterval: time.Minute}, logging.Discard())
	ctx := context.Background()
	token := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	old := time.Now().Add(-10 * time.Minute)
	_ = store.Put(ctx, token, []byte(`{"lists":[]}`), old)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: mgr.sign(token)})
	sess, err := mgr.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := mgr.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, _ := store.Get(ctx, token)
	if !rec.UpdatedAt.After(old) {
		t.Fatalf("expected updated_at to move forward")
	}
}

func TestUnreadablePayloadStartsEmpty(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()
	token := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	_ = store.Put(ctx, token, []byte(`not json`), time.Now())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: mgr.sign(token)})
	sess, err := mgr.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sess.Lists()) != 0 {
		t.Fatalf("expected empty lists")
	}
	if !strings.Contains(mgr.sign(token), ".") {
		t.Fatalf("signed value should carry a signature")
	}
}

type failingPutStore struct {
	Store
}

func (failingPutStore) Put(context.Context, string, []byte, time.Time) error {
	return errors.New("disk full")
}

func TestMiddlewareFailsWhenSaveFails(t *testing.T) {
	store := failingPutStore{Store: NewMemoryStore()}
	mgr := newTestManager(store)

	h := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		lists, _, err := todo.CreateList(sess.Lists(), "Groceries", time.Now())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		sess.SetLists(lists)
		sess.SetSuccess("The list has been created.")
		http.Redirect(w, r, "/lists", http.StatusSeeOther)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lists", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Fatalf("redirect leaked despite failed save: %s", loc)
	}
	records, _ := store.List(context.Background())
	if len(records) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(records))
	}
}

func TestMiddlewarePassesResponseThrough(t *testing.T) {
	mgr := newTestManager(NewMemoryStore())
	h := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted || rec.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain" {
		t.Fatalf("header not copied")
	}
	cookieFrom(t, rec)
}
