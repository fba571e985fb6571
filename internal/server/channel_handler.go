package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// resolveChannel parses and resolves a channel reference for the
// current session.
func (h *Handler) resolveChannel(r *http.Request, channel string) (*ChannelInfo, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("channel is required")
	}
	ref := ParseChannelRef(channel)
	return h.Gateway.ResolveChannel(r.Context(), sessionFromContext(r.Context()), ref)
}

// HandleListFiles enumerates a channel's file-bearing messages. The
// listing is all-or-nothing: any failure discards the whole response.
func (h *Handler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	var req models.ListFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.resolveChannel(r, req.Channel)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.Gateway.ListFiles(r.Context(), sessionFromContext(r.Context()), info.ID)
	if err != nil {
		h.Logger.Warn("list failed", zap.Int64("channel", info.ID), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Logger.Info("listed channel", zap.Int64("channel", info.ID), zap.Int("files", len(files)))
	h.writeJSON(w, http.StatusOK, models.ListFilesResponse{
		ChannelID:   info.ID,
		ChannelName: info.Name,
		Files:       files,
		TotalCount:  len(files),
	})
}

// HandleDownloadOne transfers the media of a single message. The
// response body carries the raw bytes; the filename travels in the
// Content-Disposition header.
func (h *Handler) HandleDownloadOne(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, transport.PathDownload)
	messageID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	var req models.ListFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := h.resolveChannel(r, req.Channel)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := sessionFromContext(r.Context())
	file, err := h.Gateway.FetchFile(r.Context(), sessionID, info.ID, messageID)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		h.Logger.Warn("download failed", zap.Int64("message", messageID), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Keep a copy so the file can be re-served without another
	// round-trip to the platform.
	key := h.blobKey(sessionID, info.ID, file.Filename)
	if err := h.Blobs.Save(key, file.Data); err != nil {
		h.Logger.Warn("blob save failed", zap.String("key", key), zap.Error(err))
	}

	h.Logger.Info("file downloaded", zap.Int64("message", messageID), zap.String("filename", file.Filename))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(file.Data)), 10))
	_, _ = w.Write(file.Data)
}

// HandleDownloadAll runs one bulk retrieval. Files transfer with bounded
// parallelism, but the response keeps exactly one entry per requested
// id, in request order; per-file failures never abort the batch.
func (h *Handler) HandleDownloadAll(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.MessageIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "message_ids is required")
		return
	}

	info, err := h.resolveChannel(r, req.Channel)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := sessionFromContext(r.Context())
	results := make([]models.FileResult, len(req.MessageIDs))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.BulkConcurrency)
	for i, messageID := range req.MessageIDs {
		g.Go(func() error {
			file, err := h.Gateway.FetchFile(ctx, sessionID, info.ID, messageID)
			if err != nil {
				results[i] = models.FileResult{
					MessageID: messageID,
					Error:     err.Error(),
				}
				return nil
			}

			key := h.blobKey(sessionID, info.ID, file.Filename)
			if err := h.Blobs.Save(key, file.Data); err != nil {
				h.Logger.Warn("blob save failed", zap.String("key", key), zap.Error(err))
			}

			results[i] = models.FileResult{
				MessageID: messageID,
				Filename:  file.Filename,
				Size:      file.Size,
				Path:      key,
				Success:   true,
			}
			return nil
		})
	}
	_ = g.Wait()

	downloaded := 0
	for _, res := range results {
		if res.Success {
			downloaded++
		}
	}

	h.Logger.Info("bulk download finished",
		zap.Int64("channel", info.ID),
		zap.Int("requested", len(req.MessageIDs)),
		zap.Int("downloaded", downloaded))

	h.writeJSON(w, http.StatusOK, models.DownloadAllResponse{
		Success:         downloaded == len(req.MessageIDs),
		TotalRequested:  len(req.MessageIDs),
		TotalDownloaded: downloaded,
		Files:           results,
	})
}

// blobKey builds the storage key for a fetched file.
func (h *Handler) blobKey(sessionID string, channelID int64, filename string) string {
	return path.Join(sessionID, strconv.FormatInt(channelID, 10), path.Base(filename))
}
