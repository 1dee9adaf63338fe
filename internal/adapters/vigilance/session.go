// Package vigilance implements the outbound integration with the
// compliance authority's API: a process-wide session credential and an
// audited request executor with a single-retry recovery policy.
package vigilance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

// Credentials is the fixed service-to-service integration identity used for
// the login exchange. Not an end-user credential.
type Credentials struct {
	Usuario    string
	Contrasena string
}

// Session holds at most one cached bearer token per process. There is no
// expiry tracking: the executor invalidates reactively on a 401/403
// business response. Cold-start logins are deduplicated with singleflight
// so concurrent first callers share one login exchange.
type Session struct {
	http      *resty.Client
	loginPath string
	creds     Credentials

	mu         sync.Mutex
	token      string
	obtainedAt time.Time
	group      singleflight.Group
}

func NewSession(http *resty.Client, loginPath string, creds Credentials) *Session {
	return &Session{http: http, loginPath: loginPath, creds: creds}
}

func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("login", func() (any, error) {
		s.mu.Lock()
		if s.token != "" {
			token := s.token
			s.mu.Unlock()
			return token, nil
		}
		s.mu.Unlock()

		token, err := s.login(ctx)
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		s.token = token
		s.obtainedAt = time.Now().UTC()
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate clears the cached token unconditionally. Idempotent.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.obtainedAt = time.Time{}
	s.mu.Unlock()
}

type loginRequest struct {
	Usuario    string `json:"usuario"`
	Contrasena string `json:"contrasena"`
}

// tokenEnvelope covers the response-shape variants the authority has been
// observed to return: the token at the top level or nested under data or
// result, under either field name.
type tokenEnvelope struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	Data        *tokenFields `json:"data"`
	Result      *tokenFields `json:"result"`
}

type tokenFields struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

func (e tokenEnvelope) extract() string {
	if e.Token != "" {
		return e.Token
	}
	if e.AccessToken != "" {
		return e.AccessToken
	}
	for _, nested := range []*tokenFields{e.Data, e.Result} {
		if nested == nil {
			continue
		}
		if nested.Token != "" {
			return nested.Token
		}
		if nested.AccessToken != "" {
			return nested.AccessToken
		}
	}
	return ""
}

func (s *Session) login(ctx context.Context) (string, error) {
	if s.creds.Usuario == "" || s.creds.Contrasena == "" {
		return "", domain.ErrMissingCredentials
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(loginRequest{Usuario: s.creds.Usuario, Contrasena: s.creds.Contrasena}).
		Post(s.loginPath)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &domain.AuthError{Status: resp.StatusCode()}
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return "", &domain.AuthError{Status: resp.StatusCode()}
	}
	token := envelope.extract()
	if token == "" {
		return "", &domain.AuthError{Status: resp.StatusCode()}
	}
	return token, nil
}
