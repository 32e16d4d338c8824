package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"educonnect/placement-service/internal/auth"
	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
)

const secret = "test-secret"

func TestVerify_RoundTrip(t *testing.T) {
	v := auth.NewVerifier(secret, 0)
	want := domain.Actor{UserID: "u1", Email: "a@example.com", Role: domain.RoleSchool}

	token, err := v.Sign(want, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Errorf("Verify = %+v, want %+v", got, want)
	}
}

func TestVerify_Rejects(t *testing.T) {
	v := auth.NewVerifier(secret, 0)
	other := auth.NewVerifier("other-secret", 0)

	expired, _ := v.Sign(domain.Actor{UserID: "u1", Role: domain.RoleTeacher}, -time.Minute)
	foreign, _ := other.Sign(domain.Actor{UserID: "u1", Role: domain.RoleTeacher}, time.Hour)
	noSubject, _ := v.Sign(domain.Actor{Role: domain.RoleTeacher}, time.Hour)
	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		AppMetadata: map[string]any{"role": "superuser"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString([]byte(secret))

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", auth.ErrInvalid},
		{"garbage", "not.a.jwt", auth.ErrInvalid},
		{"expired", expired, auth.ErrExpired},
		{"wrong secret", foreign, auth.ErrInvalid},
		{"missing subject", noSubject, auth.ErrInvalid},
		{"unknown role", badRole, auth.ErrInvalid},
		{"missing exp", noExpiry, auth.ErrInvalid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := v.Verify(c.token)
			if !errors.Is(err, c.want) {
				t.Errorf("Verify err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestVerify_MissingRoleDefaultsToTeacher(t *testing.T) {
	v := auth.NewVerifier(secret, 0)
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))

	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Role != domain.RoleTeacher {
		t.Errorf("Role = %q, want teacher", got.Role)
	}
}

func protected(v *auth.Verifier, roles ...domain.Role) http.Handler {
	ok := func(w http.ResponseWriter, r *http.Request) {
		actor, _ := auth.ActorFrom(r.Context())
		httpx.OK(w, map[string]string{"user": actor.UserID})
	}
	mws := []httpx.Middleware{auth.Middleware(v)}
	if len(roles) > 0 {
		mws = append(mws, auth.RequireRole(roles...))
	}
	return httpx.Chain(ok, mws...)
}

func TestMiddleware(t *testing.T) {
	v := auth.NewVerifier(secret, 0)
	teacher, _ := v.Sign(domain.Actor{UserID: "t1", Role: domain.RoleTeacher}, time.Hour)
	admin, _ := v.Sign(domain.Actor{UserID: "a1", Role: domain.RoleAdmin}, time.Hour)
	expired, _ := v.Sign(domain.Actor{UserID: "t1", Role: domain.RoleTeacher}, -time.Hour)

	cases := []struct {
		name       string
		header     string
		roles      []domain.Role
		wantCode   int
		wantDetail string
	}{
		{"no header", "", nil, http.StatusUnauthorized, "Not authenticated"},
		{"wrong scheme", "Basic " + teacher, nil, http.StatusUnauthorized, "Not authenticated"},
		{"bad token", "Bearer nope", nil, http.StatusUnauthorized, "Could not validate credentials"},
		{"expired", "Bearer " + expired, nil, http.StatusUnauthorized, "Session expired"},
		{"valid", "Bearer " + teacher, nil, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + teacher, nil, http.StatusOK, ""},
		{"wrong role", "Bearer " + teacher, []domain.Role{domain.RoleAdmin}, http.StatusForbidden, "permission"},
		{"right role", "Bearer " + admin, []domain.Role{domain.RoleAdmin}, http.StatusOK, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			protected(v, c.roles...).ServeHTTP(rec, req)

			if rec.Code != c.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, c.wantCode, rec.Body.String())
			}
			if c.wantDetail != "" && !strings.Contains(rec.Body.String(), c.wantDetail) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), c.wantDetail)
			}
		})
	}
}
