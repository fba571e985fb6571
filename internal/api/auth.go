package api

import (
	"context"
	"errors"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// State is the position of an auth session in the login flow.
type State int

const (
	// StateNoSession means no flow is in progress.
	StateNoSession State = iota
	// StateAwaitingCode means a code was sent and must be submitted.
	StateAwaitingCode
	// StateAwaitingPassword means the code was accepted and the account
	// requires a second-factor password.
	StateAwaitingPassword
	// StateAuthorized means the flow completed and a token is held.
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateAwaitingCode:
		return "awaiting code"
	case StateAwaitingPassword:
		return "awaiting password"
	case StateAuthorized:
		return "authorized"
	default:
		return "no session"
	}
}

// Credentials are the application credentials required to open a
// session. Immutable once supplied.
type Credentials struct {
	APIID   int
	APIHash string
}

// Authorization is the terminal product of a completed auth flow: a
// bearer token and a summary of the identity it is bound to.
type Authorization struct {
	Token string
	User  models.Identity
}

// CodeRequest is the outcome of RequestCode. Either SessionID is set and
// a code must be submitted, or AlreadyAuthorized is true and Token holds
// a usable bearer token with no code entry needed. Callers must branch.
type CodeRequest struct {
	SessionID         string
	AlreadyAuthorized bool
	Token             string
}

// CodeOutcome is the outcome of SubmitCode and SubmitPassword. Exactly
// one of the two fields is meaningful: SecondFactorRequired signals the
// flow moved to the password step (not a failure), otherwise
// Authorization carries the completed login.
type CodeOutcome struct {
	SecondFactorRequired bool
	Authorization        *Authorization
}

// SessionManager drives the phone -> code -> password login flow against
// a tgrab server. It owns the ephemeral session id that joins the
// request-code and verify-code steps, and the terminal authorization.
// It is not safe for concurrent use; a login flow is a single
// caller-driven sequence.
type SessionManager struct {
	client *Client

	state     State
	sessionID string
	phone     string
	code      string
	auth      *Authorization
}

// NewSessionManager creates a SessionManager using the given client.
func NewSessionManager(client *Client) *SessionManager {
	return &SessionManager{client: client}
}

// State returns the current flow state.
func (m *SessionManager) State() State {
	return m.state
}

// SessionID returns the open session id, empty outside an active flow.
func (m *SessionManager) SessionID() string {
	return m.sessionID
}

// Authorization returns the completed login, nil before StateAuthorized.
func (m *SessionManager) Authorization() *Authorization {
	return m.auth
}

// Reset abandons any in-progress flow and returns to StateNoSession.
// Used when the user wants to start over with a new phone number.
func (m *SessionManager) Reset() {
	m.state = StateNoSession
	m.sessionID = ""
	m.phone = ""
	m.code = ""
	m.auth = nil
}

// RequestCode opens a new session bound to phone and asks the server to
// send a one-time code. If the identity is already authorized
// out-of-band the flow short-circuits to StateAuthorized and the result
// carries a token instead of a session id.
func (m *SessionManager) RequestCode(ctx context.Context, creds Credentials, phone string) (*CodeRequest, error) {
	if creds.APIID <= 0 {
		return nil, &AuthError{Reason: "api_id must be a positive integer"}
	}
	if creds.APIHash == "" {
		return nil, &AuthError{Reason: "api_hash is required"}
	}
	if phone == "" {
		return nil, &AuthError{Reason: "phone number is required"}
	}

	var resp models.SendCodeResponse
	err := m.client.postJSON(ctx, transport.PathSendCode, "", models.SendCodeRequest{
		Phone:   phone,
		APIID:   creds.APIID,
		APIHash: creds.APIHash,
	}, &resp)
	if err != nil {
		return nil, authErr(err)
	}

	if resp.Status == models.StatusAlreadyAuthorized {
		m.Reset()
		m.state = StateAuthorized
		m.auth = &Authorization{Token: resp.Token}
		return &CodeRequest{AlreadyAuthorized: true, Token: resp.Token}, nil
	}

	m.Reset()
	m.state = StateAwaitingCode
	m.sessionID = resp.SessionID
	m.phone = phone
	return &CodeRequest{SessionID: resp.SessionID}, nil
}

// SubmitCode validates the one-time code against the open session.
// A wrong or expired code leaves the session in StateAwaitingCode so the
// caller can retry with a fresh code under the same session id.
func (m *SessionManager) SubmitCode(ctx context.Context, sessionID, code string) (*CodeOutcome, error) {
	if m.state != StateAwaitingCode || sessionID != m.sessionID {
		return nil, &AuthError{Reason: "no session awaiting a code"}
	}
	if code == "" {
		return nil, &AuthError{Reason: "code is required"}
	}

	var resp models.VerifyCodeResponse
	err := m.client.postJSON(ctx, transport.PathVerifyCode, "", models.VerifyCodeRequest{
		SessionID: sessionID,
		Code:      code,
	}, &resp)
	if err != nil {
		return nil, authErr(err)
	}

	if resp.Status == models.StatusPasswordRequired {
		m.state = StateAwaitingPassword
		m.code = code
		return &CodeOutcome{SecondFactorRequired: true}, nil
	}

	return m.complete(&resp), nil
}

// SubmitPassword completes a flow that required a second factor. A wrong
// password leaves the session in StateAwaitingPassword, retryable.
func (m *SessionManager) SubmitPassword(ctx context.Context, sessionID, password string) (*CodeOutcome, error) {
	if m.state != StateAwaitingPassword || sessionID != m.sessionID {
		return nil, &AuthError{Reason: "no session awaiting a password"}
	}
	if password == "" {
		return nil, &AuthError{Reason: "password is required"}
	}

	var resp models.VerifyCodeResponse
	err := m.client.postJSON(ctx, transport.PathVerifyCode, "", models.VerifyCodeRequest{
		SessionID: sessionID,
		Code:      m.code,
		Password:  password,
	}, &resp)
	if err != nil {
		return nil, authErr(err)
	}

	return m.complete(&resp), nil
}

func (m *SessionManager) complete(resp *models.VerifyCodeResponse) *CodeOutcome {
	auth := &Authorization{Token: resp.Token, User: resp.User}
	m.state = StateAuthorized
	m.code = ""
	m.auth = auth
	return &CodeOutcome{Authorization: auth}
}

// authErr converts transport and server errors into AuthError, passing
// server detail through verbatim.
func authErr(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return &AuthError{Reason: se.detail}
	}
	return &AuthError{Reason: err.Error()}
}
