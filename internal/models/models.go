package models

// Auth flow status values returned by the server.
const (
	StatusCodeSent          = "code_sent"
	StatusAlreadyAuthorized = "already_authorized"
	StatusPasswordRequired  = "password_required"
	StatusAuthenticated     = "authenticated"
)

// Job status values for background bulk downloads.
const (
	JobPending    = "pending"
	JobInProgress = "in_progress"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// SendCodeRequest starts an auth session for a phone number.
type SendCodeRequest struct {
	Phone   string `json:"phone"`
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
}

// SendCodeResponse is the result of requesting a login code.
// Token is only present when the identity was already authorized
// out-of-band, in which case no code entry is needed.
type SendCodeResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
}

// VerifyCodeRequest submits the one-time code, and optionally the
// second-factor password, for a pending session.
type VerifyCodeRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	Password  string `json:"password,omitempty"`
}

// Identity summarizes the authenticated account.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// VerifyCodeResponse is the terminal result of the auth flow.
// Status is password_required (and Token empty) when the account has a
// second factor and none was supplied.
type VerifyCodeResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token,omitempty"`
	User   Identity `json:"user_info"`
}

// ChannelFile describes one file-bearing message in a channel.
// IsVideo and IsPhoto are mutually exclusive; a file with neither is
// treated as a generic document.
type ChannelFile struct {
	MessageID int64  `json:"message_id"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type,omitempty"`
	Date      string `json:"date,omitempty"`
	IsVideo   bool   `json:"is_video"`
	IsPhoto   bool   `json:"is_photo"`
}

// ListFilesRequest asks for the file listing of a channel.
// Channel accepts @name, t.me links, invite links, or a numeric id.
type ListFilesRequest struct {
	Channel string `json:"channel"`
}

// ListFilesResponse is a snapshot of a channel's file-bearing messages.
type ListFilesResponse struct {
	ChannelID   int64         `json:"channel_id"`
	ChannelName string        `json:"channel_name,omitempty"`
	Files       []ChannelFile `json:"files"`
	TotalCount  int           `json:"total_count"`
}

// DownloadAllRequest submits a bulk retrieval over message ids.
type DownloadAllRequest struct {
	Channel    string  `json:"channel"`
	MessageIDs []int64 `json:"message_ids"`
}

// FileResult is the per-file outcome inside a bulk result. One entry is
// produced for every requested id, in request order, even on failure.
type FileResult struct {
	MessageID int64  `json:"message_id"`
	Filename  string `json:"filename,omitempty"`
	Size      int64  `json:"size"`
	Path      string `json:"path,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// DownloadAllResponse aggregates a bulk download. Success is true only
// when every per-file entry succeeded; partial success is representable
// without the call itself failing.
type DownloadAllResponse struct {
	Success         bool         `json:"success"`
	TotalRequested  int          `json:"total_requested"`
	TotalDownloaded int          `json:"total_downloaded"`
	Files           []FileResult `json:"files"`
}

// StartJobRequest starts a background download job over a whole channel.
type StartJobRequest struct {
	Channel string `json:"channel"`
}

// StartJobResponse returns the handle used to poll job progress.
type StartJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobFile describes a file a background job has completed.
type JobFile struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// JobStatusResponse reports background job progress.
type JobStatusResponse struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	Progress    float64   `json:"progress"`
	TotalFiles  int       `json:"total_files"`
	Downloaded  int       `json:"downloaded_files"`
	Files       []JobFile `json:"files"`
	CurrentFile string    `json:"current_file,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
