package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"pharmacy-store/internal/domain"
)

func TestSignupHandler_Created(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := do(router, http.MethodPost, "/auth/signup", "",
		`{"email":"new@example.com","password":"Secret123","fullName":"Nguyen Van A"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked in body: %s", rec.Body.String())
	}
}

func TestSignupHandler_DuplicateEmail(t *testing.T) {
	deps := testDeps()
	deps.Auth = &stubAuth{signupErr: domain.ErrAlreadyExists}
	router := newTestRouter(t, deps)
	rec := do(router, http.MethodPost, "/auth/signup", "",
		`{"email":"dup@example.com","password":"Secret123","fullName":"Dup"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != "email.exists" {
		t.Fatalf("unexpected message key %q", body.Message)
	}
}

func TestLoginHandler_Success(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := do(router, http.MethodPost, "/auth/login", "", `{"email":"user@example.com","password":"Secret123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AccessToken != userToken || body.TokenType != "Bearer" || body.ExpiresIn != 3600 {
		t.Fatalf("unexpected session: %+v", body)
	}
}

func TestLoginHandler_Unverified(t *testing.T) {
	deps := testDeps()
	deps.Auth = &stubAuth{loginErr: domain.ErrEmailNotVerified}
	router := newTestRouter(t, deps)
	rec := do(router, http.MethodPost, "/auth/login", "", `{"email":"user@example.com","password":"Secret123"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestVerifyHandler_InvalidToken(t *testing.T) {
	deps := testDeps()
	deps.Auth = &stubAuth{verifyErr: domain.ErrInvalidToken}
	router := newTestRouter(t, deps)
	rec := do(router, http.MethodPost, "/auth/verify", "", `{"token":"stale"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != "auth.invalid_token" {
		t.Fatalf("unexpected message key %q", body.Message)
	}
}

func TestForgotPassword_AlwaysAccepted(t *testing.T) {
	auth := &stubAuth{}
	deps := testDeps()
	deps.Auth = auth
	router := newTestRouter(t, deps)
	rec := do(router, http.MethodPost, "/auth/password/forgot", "", `{"email":"ghost@example.com"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(auth.resetEmails) != 1 || auth.resetEmails[0] != "ghost@example.com" {
		t.Fatalf("unexpected reset requests %v", auth.resetEmails)
	}
}

func TestResetPassword_NoContent(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := do(router, http.MethodPost, "/auth/password/reset", "", `{"token":"t","password":"NewSecret1"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestMeHandler_Success(t *testing.T) {
	router := newTestRouter(t, testDeps())
	rec := do(router, http.MethodGet, "/me", userToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"user@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestLogout_RevokesPresentedToken(t *testing.T) {
	auth := &stubAuth{}
	deps := testDeps()
	deps.Auth = auth
	router := newTestRouter(t, deps)
	rec := do(router, http.MethodPost, "/auth/logout", userToken, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(auth.loggedOut) != 1 || auth.loggedOut[0] != userToken {
		t.Fatalf("expected token revoked, got %v", auth.loggedOut)
	}
}
