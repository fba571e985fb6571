package server

import (
	"context"
	"errors"

	"github.com/nirmitsaini1024/tgrab/internal/models"
)

// Sentinel errors gateways report so handlers can map them to the right
// status codes and auth-flow signals.
var (
	// ErrPasswordRequired means the code was accepted but the account
	// has a second-factor password. Not a failure.
	ErrPasswordRequired = errors.New("second-factor password required")
	// ErrNotFound means the requested message does not exist or carries
	// no downloadable media.
	ErrNotFound = errors.New("message not found or has no media")
	// ErrSessionNotConnected means no live messaging session exists for
	// the session id; the user must authenticate again.
	ErrSessionNotConnected = errors.New("session not connected, please re-authenticate")
)

// ChannelInfo is a resolved channel.
type ChannelInfo struct {
	ID   int64
	Name string
}

// FetchedFile is a file retrieved from a channel message.
type FetchedFile struct {
	Filename string
	Size     int64
	MimeType string
	Data     []byte
}

// Gateway abstracts the messaging platform operations the handlers
// need. The production implementation lives in internal/telegram;
// tests use a fake.
type Gateway interface {
	// SendCode opens a messaging session for the given credentials and
	// requests a login code for phone. It reports true when the stored
	// session is already authorized and no code entry is needed.
	SendCode(ctx context.Context, sessionID string, apiID int, apiHash, phone string) (alreadyAuthorized bool, err error)

	// SignIn validates the one-time code. It returns ErrPasswordRequired
	// when the account needs a second factor.
	SignIn(ctx context.Context, sessionID, phone, code string) (*models.Identity, error)

	// SignInWithPassword completes a sign-in that required a second
	// factor.
	SignInWithPassword(ctx context.Context, sessionID, password string) (*models.Identity, error)

	// ResolveChannel resolves a parsed channel reference to a canonical
	// channel.
	ResolveChannel(ctx context.Context, sessionID string, ref ChannelRef) (*ChannelInfo, error)

	// ListFiles enumerates the file-bearing messages of a resolved
	// channel, newest first.
	ListFiles(ctx context.Context, sessionID string, channelID int64) ([]models.ChannelFile, error)

	// FetchFile downloads the media of one message.
	FetchFile(ctx context.Context, sessionID string, channelID, messageID int64) (*FetchedFile, error)

	// Close tears down the messaging session, if any.
	Close(sessionID string)
}
