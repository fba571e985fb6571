package api

import "fmt"

// FetchKind distinguishes listing failures the caller may want to
// handle differently.
type FetchKind int

const (
	// FetchNetwork is a transport-level failure before any server verdict.
	FetchNetwork FetchKind = iota
	// FetchUnauthorized means the token was missing or rejected.
	FetchUnauthorized
	// FetchBadChannel means the channel reference could not be resolved.
	FetchBadChannel
)

func (k FetchKind) String() string {
	switch k {
	case FetchUnauthorized:
		return "unauthorized"
	case FetchBadChannel:
		return "bad channel"
	default:
		return "network"
	}
}

// AuthError covers failures of the authentication flow: bad credentials,
// invalid or expired codes and passwords, rate limiting. The reason is
// the server-reported detail, passed through verbatim.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// FetchError covers channel listing failures.
type FetchError struct {
	Kind   FetchKind
	Reason string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch (%s): %s", e.Kind, e.Reason)
}

// DownloadError covers file transfer failures. MessageID is zero when
// the error applies to a whole batch rather than a single file.
type DownloadError struct {
	MessageID int64
	Reason    string
}

func (e *DownloadError) Error() string {
	if e.MessageID != 0 {
		return fmt.Sprintf("download message %d: %s", e.MessageID, e.Reason)
	}
	return "download: " + e.Reason
}
