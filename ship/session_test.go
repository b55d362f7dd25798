package ship

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testCode = "lidlut-tabwed-pillex-ridrup"

func newEyreStub(t *testing.T, pokes *[]channelAction, deletes *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/~/login":
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse login form: %v", err)
			}
			if r.FormValue("password") != testCode {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "urbauth-~zod", Value: "0v1.stub", Path: "/"})
			w.WriteHeader(http.StatusNoContent)

		case r.Method == http.MethodGet && r.URL.Path == "/~/name":
			if !hasAuthCookie(r) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte("~zod"))

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/~/channel/"):
			raw, _ := io.ReadAll(r.Body)
			var actions []channelAction
			if err := json.Unmarshal(raw, &actions); err != nil {
				t.Fatalf("decode channel actions: %v", err)
			}
			for _, a := range actions {
				switch a.Action {
				case "poke":
					if pokes != nil {
						*pokes = append(*pokes, a)
					}
				case "delete":
					if deletes != nil {
						*deletes++
					}
				}
			}
			w.WriteHeader(http.StatusNoContent)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/~/scry/"):
			if !hasAuthCookie(r) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"zod":{"nickname":"The Z"},"wet":null}`))

		default:
			http.NotFound(w, r)
		}
	}
}

func hasAuthCookie(r *http.Request) bool {
	for _, c := range r.Cookies() {
		if strings.HasPrefix(c.Name, "urbauth") {
			return true
		}
	}
	return false
}

func newTestSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()
	s, err := NewSession(SessionOptions{
		URL:        srv.URL,
		Name:       "zod",
		Code:       testCode,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func TestSessionLoginAndProbe(t *testing.T) {
	srv := httptest.NewServer(newEyreStub(t, nil, nil))
	defer srv.Close()

	s := newTestSession(t, srv)
	if s.IsLive() {
		t.Fatalf("session live before login")
	}
	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !s.IsLive() {
		t.Fatalf("session not live after login")
	}

	name, err := s.Name(context.Background())
	if err != nil {
		t.Fatalf("Name() error = %v", err)
	}
	if name != "~zod" {
		t.Fatalf("Name() = %q, want %q", name, "~zod")
	}
}

func TestSessionLoginRejected(t *testing.T) {
	srv := httptest.NewServer(newEyreStub(t, nil, nil))
	defer srv.Close()

	s, err := NewSession(SessionOptions{
		URL:        srv.URL,
		Name:       "zod",
		Code:       "wrong-code",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	err = s.Login(context.Background())
	if err == nil {
		t.Fatalf("Login() with wrong code should fail")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
	if s.IsLive() {
		t.Fatalf("session live after rejected login")
	}
}

func TestSessionPokeSendsActionAndClosesChannel(t *testing.T) {
	var pokes []channelAction
	deletes := 0
	srv := httptest.NewServer(newEyreStub(t, &pokes, &deletes))
	defer srv.Close()

	s := newTestSession(t, srv)
	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	body := map[string]any{"ship": "~wet", "diff": map[string]any{}}
	if err := s.Poke(context.Background(), "chat", "chat-dm-action", body); err != nil {
		t.Fatalf("Poke() error = %v", err)
	}

	if len(pokes) != 1 {
		t.Fatalf("got %d pokes, want 1", len(pokes))
	}
	got := pokes[0]
	if got.Ship != "zod" {
		t.Fatalf("poke ship = %q, want %q (sans sigil)", got.Ship, "zod")
	}
	if got.App != "chat" || got.Mark != "chat-dm-action" {
		t.Fatalf("poke target = %s/%s, want chat/chat-dm-action", got.App, got.Mark)
	}
	if deletes != 1 {
		t.Fatalf("got %d channel deletes, want 1", deletes)
	}
}

func TestSessionScryDecodes(t *testing.T) {
	srv := httptest.NewServer(newEyreStub(t, nil, nil))
	defer srv.Close()

	s := newTestSession(t, srv)
	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	var out map[string]map[string]any
	if err := s.Scry(context.Background(), "contacts", "/all", &out); err != nil {
		t.Fatalf("Scry() error = %v", err)
	}
	if out["zod"]["nickname"] != "The Z" {
		t.Fatalf("scry payload mismatch: %#v", out)
	}
	if _, ok := out["wet"]; !ok {
		t.Fatalf("null record should still decode as a key")
	}
}

func TestSessionScryUnauthorizedMarksDead(t *testing.T) {
	srv := httptest.NewServer(newEyreStub(t, nil, nil))
	defer srv.Close()

	s := newTestSession(t, srv)
	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Fresh jarless client drops the cookie, so the scry comes back 403.
	s.http = &http.Client{}
	var out map[string]any
	err := s.Scry(context.Background(), "contacts", "/all", &out)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Scry() error = %v, want ErrUnauthorized", err)
	}
	if s.IsLive() {
		t.Fatalf("session should be marked dead after 403")
	}
}

func TestSessionPokeRemoteRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/~/login" {
			http.SetCookie(w, &http.Cookie{Name: "urbauth-~zod", Value: "0v1.stub", Path: "/"})
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "poke failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	if err := s.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	err := s.Poke(context.Background(), "chat", "chat-dm-action", map[string]any{})
	if !errors.Is(err, ErrRemoteAction) {
		t.Fatalf("Poke() error = %v, want ErrRemoteAction", err)
	}
}
