package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// authServerState drives the mock auth server.
type authServerState struct {
	alreadyAuthorized bool
	passwordRequired  bool
	acceptCode        string
	acceptPassword    string

	lastVerify models.VerifyCodeRequest
}

func newAuthTestServer(t *testing.T, state *authServerState) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case transport.PathSendCode:
			if state.alreadyAuthorized {
				_ = json.NewEncoder(w).Encode(models.SendCodeResponse{
					SessionID: "sess-1",
					Status:    models.StatusAlreadyAuthorized,
					Token:     "existing-token",
				})
				return
			}
			_ = json.NewEncoder(w).Encode(models.SendCodeResponse{
				SessionID: "sess-1",
				Status:    models.StatusCodeSent,
				Message:   "Code sent successfully",
			})

		case transport.PathVerifyCode:
			var req models.VerifyCodeRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			state.lastVerify = req

			if req.Code != state.acceptCode {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(models.ErrorResponse{Detail: "Invalid code"})
				return
			}
			if state.passwordRequired && req.Password == "" {
				_ = json.NewEncoder(w).Encode(models.VerifyCodeResponse{
					Status: models.StatusPasswordRequired,
				})
				return
			}
			if state.passwordRequired && req.Password != state.acceptPassword {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(models.ErrorResponse{Detail: "Invalid password"})
				return
			}
			_ = json.NewEncoder(w).Encode(models.VerifyCodeResponse{
				Status: models.StatusAuthenticated,
				Token:  "fresh-token",
				User:   models.Identity{ID: 42, Username: "tester"},
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

var testCreds = Credentials{APIID: 12345, APIHash: "hash"}

func TestRequestCodeValidation(t *testing.T) {
	mgr := NewSessionManager(NewClient("http://localhost:1"))
	ctx := context.Background()

	cases := []struct {
		name  string
		creds Credentials
		phone string
	}{
		{"zero api id", Credentials{APIHash: "h"}, "+1555"},
		{"negative api id", Credentials{APIID: -1, APIHash: "h"}, "+1555"},
		{"empty api hash", Credentials{APIID: 1}, "+1555"},
		{"empty phone", Credentials{APIID: 1, APIHash: "h"}, ""},
	}
	for _, tc := range cases {
		_, err := mgr.RequestCode(ctx, tc.creds, tc.phone)
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Errorf("%s: expected AuthError, got %v", tc.name, err)
		}
	}
	if mgr.State() != StateNoSession {
		t.Errorf("Validation failures must not advance state, got %v", mgr.State())
	}
}

func TestAuthFlow(t *testing.T) {
	state := &authServerState{acceptCode: "12345"}
	ts := newAuthTestServer(t, state)
	defer ts.Close()

	mgr := NewSessionManager(NewClient(ts.URL))
	ctx := context.Background()

	res, err := mgr.RequestCode(ctx, testCreds, "+15550100")
	if err != nil {
		t.Fatalf("RequestCode failed: %v", err)
	}
	if res.AlreadyAuthorized {
		t.Fatal("Unexpected already-authorized")
	}
	if res.SessionID != "sess-1" {
		t.Errorf("Expected session sess-1, got %q", res.SessionID)
	}
	if mgr.State() != StateAwaitingCode {
		t.Fatalf("Expected awaiting code, got %v", mgr.State())
	}

	outcome, err := mgr.SubmitCode(ctx, res.SessionID, "12345")
	if err != nil {
		t.Fatalf("SubmitCode failed: %v", err)
	}
	if outcome.SecondFactorRequired {
		t.Fatal("No second factor expected")
	}
	if outcome.Authorization == nil || outcome.Authorization.Token != "fresh-token" {
		t.Fatalf("Expected token, got %+v", outcome)
	}
	if outcome.Authorization.User.Username != "tester" {
		t.Errorf("Unexpected identity: %+v", outcome.Authorization.User)
	}
	if mgr.State() != StateAuthorized {
		t.Errorf("Expected authorized, got %v", mgr.State())
	}
}

func TestAuthFlowSecondFactor(t *testing.T) {
	state := &authServerState{acceptCode: "12345", passwordRequired: true, acceptPassword: "hunter2"}
	ts := newAuthTestServer(t, state)
	defer ts.Close()

	mgr := NewSessionManager(NewClient(ts.URL))
	ctx := context.Background()

	res, err := mgr.RequestCode(ctx, testCreds, "+15550100")
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := mgr.SubmitCode(ctx, res.SessionID, "12345")
	if err != nil {
		t.Fatalf("SubmitCode failed: %v", err)
	}
	// The second factor is a flow signal, not a failure.
	if !outcome.SecondFactorRequired {
		t.Fatal("Expected second factor required")
	}
	if outcome.Authorization != nil {
		t.Error("No authorization before the password is supplied")
	}
	if mgr.State() != StateAwaitingPassword {
		t.Fatalf("Expected awaiting password, got %v", mgr.State())
	}

	// Wrong password keeps the flow retryable.
	_, err = mgr.SubmitPassword(ctx, res.SessionID, "wrong")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != "Invalid password" {
		t.Fatalf("Expected Invalid password AuthError, got %v", err)
	}
	if mgr.State() != StateAwaitingPassword {
		t.Errorf("Wrong password must keep state, got %v", mgr.State())
	}

	outcome, err = mgr.SubmitPassword(ctx, res.SessionID, "hunter2")
	if err != nil {
		t.Fatalf("SubmitPassword failed: %v", err)
	}
	if outcome.Authorization == nil || outcome.Authorization.Token != "fresh-token" {
		t.Fatalf("Expected token, got %+v", outcome)
	}
	if mgr.State() != StateAuthorized {
		t.Errorf("Expected authorized, got %v", mgr.State())
	}

	// The password request must repeat the accepted code.
	if state.lastVerify.Code != "12345" || state.lastVerify.Password != "hunter2" {
		t.Errorf("Password request missing code: %+v", state.lastVerify)
	}
}

func TestAlreadyAuthorized(t *testing.T) {
	state := &authServerState{alreadyAuthorized: true}
	ts := newAuthTestServer(t, state)
	defer ts.Close()

	mgr := NewSessionManager(NewClient(ts.URL))
	res, err := mgr.RequestCode(context.Background(), testCreds, "+15550100")
	if err != nil {
		t.Fatal(err)
	}
	if !res.AlreadyAuthorized || res.Token != "existing-token" {
		t.Fatalf("Expected already-authorized with token, got %+v", res)
	}
	if mgr.State() != StateAuthorized {
		t.Errorf("Expected authorized, got %v", mgr.State())
	}
	if auth := mgr.Authorization(); auth == nil || auth.Token != "existing-token" {
		t.Errorf("Authorization not stored: %+v", auth)
	}
}

func TestSubmitCodeWrongState(t *testing.T) {
	state := &authServerState{acceptCode: "12345"}
	ts := newAuthTestServer(t, state)
	defer ts.Close()

	mgr := NewSessionManager(NewClient(ts.URL))
	ctx := context.Background()

	// No flow open yet.
	_, err := mgr.SubmitCode(ctx, "sess-1", "12345")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %v", err)
	}

	// Mismatched session id.
	if _, err := mgr.RequestCode(ctx, testCreds, "+15550100"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.SubmitCode(ctx, "other-session", "12345"); !errors.As(err, &authErr) {
		t.Errorf("Expected AuthError for wrong session id, got %v", err)
	}

	// Password without a password step.
	if _, err := mgr.SubmitPassword(ctx, "sess-1", "pw"); !errors.As(err, &authErr) {
		t.Errorf("Expected AuthError for premature password, got %v", err)
	}
}

func TestSubmitCodeInvalidRetry(t *testing.T) {
	state := &authServerState{acceptCode: "12345"}
	ts := newAuthTestServer(t, state)
	defer ts.Close()

	mgr := NewSessionManager(NewClient(ts.URL))
	ctx := context.Background()
	res, err := mgr.RequestCode(ctx, testCreds, "+15550100")
	if err != nil {
		t.Fatal(err)
	}

	_, err = mgr.SubmitCode(ctx, res.SessionID, "99999")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Reason != "Invalid code" {
		t.Fatalf("Expected Invalid code AuthError, got %v", err)
	}
	if mgr.State() != StateAwaitingCode {
		t.Fatalf("Wrong code must keep state, got %v", mgr.State())
	}

	// A fresh code under the same session still completes.
	outcome, err := mgr.SubmitCode(ctx, res.SessionID, "12345")
	if err != nil || outcome.Authorization == nil {
		t.Fatalf("Retry failed: %v %+v", err, outcome)
	}
}

func TestSessionManagerReset(t *testing.T) {
	state := &authServerState{acceptCode: "12345"}
	ts := newAuthTestServer(t, state)
	defer ts.Close()

	mgr := NewSessionManager(NewClient(ts.URL))
	ctx := context.Background()
	if _, err := mgr.RequestCode(ctx, testCreds, "+15550100"); err != nil {
		t.Fatal(err)
	}

	mgr.Reset()
	if mgr.State() != StateNoSession || mgr.SessionID() != "" {
		t.Errorf("Reset did not clear state: %v %q", mgr.State(), mgr.SessionID())
	}
}
