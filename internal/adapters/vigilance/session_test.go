package vigilance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) (*Session, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewSession(
		resty.New().SetBaseURL(srv.URL),
		"/api/v1/inicio-sesion",
		Credentials{Usuario: "svc", Contrasena: "secreta"},
	)
	return session, srv
}

func TestSessionExtractsTokenVariants(t *testing.T) {
	variants := map[string]string{
		"top-level token":        `{"token":"tok-1"}`,
		"top-level access_token": `{"access_token":"tok-1"}`,
		"nested data":            `{"data":{"token":"tok-1"}}`,
		"nested data access":     `{"data":{"access_token":"tok-1"}}`,
		"nested result":          `{"result":{"token":"tok-1"}}`,
	}

	for name, body := range variants {
		t.Run(name, func(t *testing.T) {
			session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})

			token, err := session.Token(context.Background())
			if err != nil {
				t.Fatalf("token: %v", err)
			}
			if token != "tok-1" {
				t.Fatalf("token = %q, want tok-1", token)
			}
		})
	}
}

func TestSessionSendsCredentials(t *testing.T) {
	var gotPath, gotBody string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	})

	if _, err := session.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if gotPath != "/api/v1/inicio-sesion" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody != `{"usuario":"svc","contrasena":"secreta"}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSessionRequiresCredentials(t *testing.T) {
	session := NewSession(resty.New(), "/api/v1/inicio-sesion", Credentials{})
	if _, err := session.Token(context.Background()); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestSessionLoginFailureCarriesStatus(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := session.Token(context.Background())
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", authErr.Status)
	}
}

func TestSessionNoExtractableTokenIsAuthError(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"mensaje":"ok"}`))
	})

	_, err := session.Token(context.Background())
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", authErr.Status)
	}
}

func TestSessionCachesTokenAcrossCalls(t *testing.T) {
	var logins atomic.Int64
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	})

	for i := 0; i < 3; i++ {
		if _, err := session.Token(context.Background()); err != nil {
			t.Fatalf("token call %d: %v", i, err)
		}
	}
	if logins.Load() != 1 {
		t.Fatalf("logins = %d, want 1", logins.Load())
	}
}

func TestSessionColdStartSingleFlight(t *testing.T) {
	var logins atomic.Int64
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := session.Token(context.Background()); err != nil {
				t.Errorf("token: %v", err)
			}
		}()
	}
	wg.Wait()

	if logins.Load() != 1 {
		t.Fatalf("concurrent cold start performed %d logins, want 1", logins.Load())
	}
}

func TestSessionInvalidateForcesReLogin(t *testing.T) {
	var logins atomic.Int64
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		n := logins.Add(1)
		if n == 1 {
			_, _ = w.Write([]byte(`{"token":"tok-first"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-second"}`))
	})

	first, err := session.Token(context.Background())
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	session.Invalidate()
	session.Invalidate() // idempotent

	second, err := session.Token(context.Background())
	if err != nil {
		t.Fatalf("second token: %v", err)
	}
	if first != "tok-first" || second != "tok-second" {
		t.Fatalf("tokens = %q, %q", first, second)
	}
	if logins.Load() != 2 {
		t.Fatalf("logins = %d, want 2", logins.Load())
	}
}
