package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/server"
)

// Gateway implements server.Gateway on top of gotd/td. Each auth
// session gets its own MTProto client with file-backed session storage,
// kept connected in the background until Close.
type Gateway struct {
	sessionDir string
	logger     *zap.Logger

	mu       sync.Mutex
	accounts map[string]*account
}

// account is one live MTProto connection.
type account struct {
	client *telegram.Client
	api    *tg.Client
	stop   context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	phoneCodeHash string
	channels      map[int64]*tg.InputChannel // resolved channel id -> input
}

// NewGateway creates a Gateway storing MTProto sessions under
// sessionDir.
func NewGateway(sessionDir string, logger *zap.Logger) (*Gateway, error) {
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Gateway{
		sessionDir: sessionDir,
		logger:     logger,
		accounts:   make(map[string]*account),
	}, nil
}

// connect starts a client for the session and blocks until it is
// connected. The client stays up in a background goroutine.
func (g *Gateway) connect(sessionID string, apiID int, apiHash string) (*account, error) {
	client := telegram.NewClient(apiID, apiHash, telegram.Options{
		Logger:         g.logger.Named("td"),
		SessionStorage: &session.FileStorage{Path: filepath.Join(g.sessionDir, sessionID+".json")},
	})

	ctx, cancel := context.WithCancel(context.Background())
	acct := &account{
		client:   client,
		stop:     cancel,
		done:     make(chan struct{}),
		channels: make(map[int64]*tg.InputChannel),
	}

	ready := make(chan error, 1)
	go func() {
		defer close(acct.done)
		err := client.Run(ctx, func(cctx context.Context) error {
			acct.api = client.API()
			ready <- nil
			<-cctx.Done()
			return cctx.Err()
		})
		select {
		case ready <- err:
		default:
			if err != nil && !errors.Is(err, context.Canceled) {
				g.logger.Warn("client stopped", zap.String("session", sessionID), zap.Error(err))
			}
		}
	}()

	if err := <-ready; err != nil {
		cancel()
		return nil, fmt.Errorf("connect: %w", err)
	}

	g.mu.Lock()
	g.accounts[sessionID] = acct
	g.mu.Unlock()
	return acct, nil
}

func (g *Gateway) account(sessionID string) (*account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, ok := g.accounts[sessionID]
	if !ok {
		return nil, server.ErrSessionNotConnected
	}
	return acct, nil
}

// SendCode connects the session and requests a login code, unless the
// stored MTProto session is already authorized.
func (g *Gateway) SendCode(ctx context.Context, sessionID string, apiID int, apiHash, phone string) (bool, error) {
	acct, err := g.connect(sessionID, apiID, apiHash)
	if err != nil {
		return false, err
	}

	status, err := acct.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("auth status: %w", err)
	}
	if status.Authorized {
		return true, nil
	}

	sent, err := acct.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return false, authFlowError(err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return false, fmt.Errorf("unexpected sent code type %T", sent)
	}

	acct.mu.Lock()
	acct.phoneCodeHash = code.PhoneCodeHash
	acct.mu.Unlock()
	return false, nil
}

// SignIn validates the one-time code. A second-factor requirement is
// reported as server.ErrPasswordRequired.
func (g *Gateway) SignIn(ctx context.Context, sessionID, phone, code string) (*models.Identity, error) {
	acct, err := g.account(sessionID)
	if err != nil {
		return nil, err
	}

	acct.mu.Lock()
	codeHash := acct.phoneCodeHash
	acct.mu.Unlock()

	if _, err := acct.client.Auth().SignIn(ctx, phone, code, codeHash); err != nil {
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			return nil, server.ErrPasswordRequired
		}
		return nil, authFlowError(err)
	}

	return g.identity(ctx, acct)
}

// SignInWithPassword completes a sign-in for accounts with a second
// factor.
func (g *Gateway) SignInWithPassword(ctx context.Context, sessionID, password string) (*models.Identity, error) {
	acct, err := g.account(sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := acct.client.Auth().Password(ctx, password); err != nil {
		return nil, authFlowError(err)
	}

	return g.identity(ctx, acct)
}

func (g *Gateway) identity(ctx context.Context, acct *account) (*models.Identity, error) {
	self, err := acct.client.Self(ctx)
	if err != nil {
		return nil, fmt.Errorf("get self: %w", err)
	}
	return &models.Identity{
		ID:        self.ID,
		FirstName: self.FirstName,
		LastName:  self.LastName,
		Username:  self.Username,
		Phone:     self.Phone,
	}, nil
}

// Close tears down the session's client, if any.
func (g *Gateway) Close(sessionID string) {
	g.mu.Lock()
	acct, ok := g.accounts[sessionID]
	delete(g.accounts, sessionID)
	g.mu.Unlock()
	if !ok {
		return
	}
	acct.stop()
	<-acct.done
}

// CloseAll tears down every live client. Used on server shutdown.
func (g *Gateway) CloseAll() {
	g.mu.Lock()
	accounts := g.accounts
	g.accounts = make(map[string]*account)
	g.mu.Unlock()

	for _, acct := range accounts {
		acct.stop()
		<-acct.done
	}
}

// authFlowError maps platform auth errors onto the messages surfaced to
// clients.
func authFlowError(err error) error {
	switch {
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		return errors.New("Invalid phone number")
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return errors.New("Invalid code")
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return errors.New("Code expired. Please request a new code")
	case tgerr.Is(err, "PASSWORD_HASH_INVALID"):
		return errors.New("Invalid password")
	}
	if d, ok := tgerr.AsFloodWait(err); ok {
		return fmt.Errorf("Rate limited. Please wait %d seconds", int(d.Seconds()))
	}
	return err
}
