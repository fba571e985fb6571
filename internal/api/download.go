package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// Orchestrator lists a channel's files and retrieves them, singly or in
// bulk. Every operation takes the bearer token as an explicit parameter;
// the orchestrator never stores or mutates it.
type Orchestrator struct {
	client *Client
}

// NewOrchestrator creates an Orchestrator using the given client.
func NewOrchestrator(client *Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// FileDownload is a single retrieved file. Body streams the file bytes
// and must be closed by the caller. Size is -1 when unknown.
type FileDownload struct {
	MessageID int64
	Filename  string
	Size      int64
	Body      io.ReadCloser
}

// ListFiles resolves the channel reference and returns a snapshot of its
// file-bearing messages. Ordering is server-determined and preserved;
// the listing is all-or-nothing.
func (o *Orchestrator) ListFiles(ctx context.Context, token, channel string) (*models.ListFilesResponse, error) {
	if token == "" {
		return nil, &FetchError{Kind: FetchUnauthorized, Reason: "access token required"}
	}
	if channel == "" {
		return nil, &FetchError{Kind: FetchBadChannel, Reason: "channel reference required"}
	}

	var resp models.ListFilesResponse
	err := o.client.postJSON(ctx, transport.PathListFiles, token, models.ListFilesRequest{Channel: channel}, &resp)
	if err != nil {
		return nil, fetchErr(err)
	}
	return &resp, nil
}

// DownloadOne retrieves a single file by message id. The filename is
// taken from the Content-Disposition header when present, otherwise it
// falls back to file_<message_id>.
func (o *Orchestrator) DownloadOne(ctx context.Context, token, channel string, messageID int64) (*FileDownload, error) {
	if token == "" {
		return nil, &DownloadError{MessageID: messageID, Reason: "access token required"}
	}
	if channel == "" {
		return nil, &DownloadError{MessageID: messageID, Reason: "channel reference required"}
	}

	path := transport.PathDownload + strconv.FormatInt(messageID, 10)
	resp, err := o.client.post(ctx, path, token, models.ListFilesRequest{Channel: channel})
	if err != nil {
		return nil, &DownloadError{MessageID: messageID, Reason: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := decodeStatusError(resp)
		_ = resp.Body.Close()
		return nil, &DownloadError{MessageID: messageID, Reason: se.detail}
	}

	filename := fmt.Sprintf("file_%d", messageID)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}

	size := int64(-1)
	if resp.ContentLength >= 0 {
		size = resp.ContentLength
	}

	return &FileDownload{
		MessageID: messageID,
		Filename:  filename,
		Size:      size,
		Body:      resp.Body,
	}, nil
}

// DownloadAll submits one bulk retrieval over the given message ids and
// blocks for the aggregate result. The result has exactly one per-file
// entry for every requested id, in request order; individual failures do
// not fail the call. Only systemic problems (rejected token, channel
// unresolvable) surface as an error.
func (o *Orchestrator) DownloadAll(ctx context.Context, token, channel string, messageIDs []int64) (*models.DownloadAllResponse, error) {
	if token == "" {
		return nil, &FetchError{Kind: FetchUnauthorized, Reason: "access token required"}
	}
	if channel == "" {
		return nil, &FetchError{Kind: FetchBadChannel, Reason: "channel reference required"}
	}
	if len(messageIDs) == 0 {
		return nil, &DownloadError{Reason: "no message ids requested"}
	}
	seen := make(map[int64]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		if _, dup := seen[id]; dup {
			return nil, &DownloadError{MessageID: id, Reason: "duplicate message id in batch"}
		}
		seen[id] = struct{}{}
	}

	var resp models.DownloadAllResponse
	err := o.client.postJSON(ctx, transport.PathDownloadAll, token, models.DownloadAllRequest{
		Channel:    channel,
		MessageIDs: messageIDs,
	}, &resp)
	if err != nil {
		return nil, fetchErr(err)
	}
	return &resp, nil
}

// StartJob starts a background download of every file in a channel and
// returns the job handle to poll.
func (o *Orchestrator) StartJob(ctx context.Context, token, channel string) (*models.StartJobResponse, error) {
	if token == "" {
		return nil, &FetchError{Kind: FetchUnauthorized, Reason: "access token required"}
	}
	if channel == "" {
		return nil, &FetchError{Kind: FetchBadChannel, Reason: "channel reference required"}
	}

	var resp models.StartJobResponse
	err := o.client.postJSON(ctx, transport.PathJobStart, token, models.StartJobRequest{Channel: channel}, &resp)
	if err != nil {
		return nil, fetchErr(err)
	}
	return &resp, nil
}

// JobStatus polls the progress of a background download job.
func (o *Orchestrator) JobStatus(ctx context.Context, token, jobID string) (*models.JobStatusResponse, error) {
	if token == "" {
		return nil, &FetchError{Kind: FetchUnauthorized, Reason: "access token required"}
	}

	var resp models.JobStatusResponse
	err := o.client.getJSON(ctx, transport.PathJobStatus+jobID, token, &resp)
	if err != nil {
		return nil, fetchErr(err)
	}
	return &resp, nil
}

// fetchErr maps transport and server errors onto FetchError kinds.
func fetchErr(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return &FetchError{Kind: FetchNetwork, Reason: err.Error()}
	}
	switch se.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &FetchError{Kind: FetchUnauthorized, Reason: se.detail}
	case http.StatusBadRequest, http.StatusNotFound:
		return &FetchError{Kind: FetchBadChannel, Reason: se.detail}
	default:
		return &FetchError{Kind: FetchNetwork, Reason: se.Error()}
	}
}
