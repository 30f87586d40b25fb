package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
)

type fakeAccounts struct {
	user      *identity.User
	signupErr error
	token     string
	handle    string
	signinErr error
}

func (f *fakeAccounts) Signup(ctx context.Context, email, password string) (*identity.User, error) {
	return f.user, f.signupErr
}

func (f *fakeAccounts) Signin(ctx context.Context, email, password string) (string, string, error) {
	return f.token, f.handle, f.signinErr
}

type fakeVerifier struct {
	principal *identity.Principal
	err       error
}

func (f *fakeVerifier) Verify(token string) (*identity.Principal, error) {
	return f.principal, f.err
}

func TestSignupSuccess(t *testing.T) {
	accounts := &fakeAccounts{user: &identity.User{
		ID:              "u1",
		Email:           "a@b.com",
		AnonymousHandle: "@SilverOtter42",
	}}
	h := NewAuthHandler(accounts, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"a@b.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["anonymousHandle"] != "@SilverOtter42" {
		t.Errorf("anonymousHandle = %v", body["anonymousHandle"])
	}
	if _, exposed := body["passwordHash"]; exposed {
		t.Error("password hash leaked in response")
	}
}

func TestSignupErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", identity.ValidationError{Field: "password", Reason: "too short"}, http.StatusBadRequest},
		{"email taken", identity.ErrEmailTaken, http.StatusConflict},
		{"store failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAccounts{signupErr: tc.err}, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
				strings.NewReader(`{"email":"a@b.com","password":"x"}`))
			rec := httptest.NewRecorder()
			h.Signup(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSigninSuccess(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{token: "tok", handle: "@SilverOtter42"}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"a@b.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	h.Signin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["token"] != "tok" || body["anonymousHandle"] != "@SilverOtter42" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSigninBadCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{signinErr: identity.ErrInvalidCredentials}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin",
		strings.NewReader(`{"email":"a@b.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Signin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSigninRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.Signin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	var seen *identity.Principal
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = principalFrom(r)
		w.WriteHeader(http.StatusNoContent)
	})

	verifier := &fakeVerifier{principal: &identity.Principal{UserID: "u1", Email: "a@b.com"}}
	protected := RequireAuth(verifier)(inner)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		bad := RequireAuth(&fakeVerifier{err: identity.ErrUnauthorized})(inner)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer junk")
		rec := httptest.NewRecorder()
		bad.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if seen == nil || seen.UserID != "u1" {
			t.Fatalf("principal not propagated: %+v", seen)
		}
	})
}
