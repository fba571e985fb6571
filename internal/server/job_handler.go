package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nirmitsaini1024/tgrab/internal/models"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// HandleStartJob starts a background download of every file in a
// channel and returns the job handle the caller polls.
func (h *Handler) HandleStartJob(w http.ResponseWriter, r *http.Request) {
	var req models.StartJobRequest
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
	job := h.Jobs.Create(sessionID, info.ID)

	// Detached from the request context: once started, a job runs to
	// completion or failure.
	go h.runJob(context.Background(), job)

	h.Logger.Info("job started", zap.String("job", job.ID), zap.Int64("channel", info.ID))
	h.writeJSON(w, http.StatusOK, models.StartJobResponse{
		JobID:   job.ID,
		Status:  "started",
		Message: "Download started successfully",
	})
}

// runJob lists the channel and downloads every file sequentially,
// updating progress as it goes. Per-file failures are skipped; only
// listing failures fail the job.
func (h *Handler) runJob(ctx context.Context, job *Job) {
	files, err := h.Gateway.ListFiles(ctx, job.SessionID, job.ChannelID)
	if err != nil {
		h.Logger.Warn("job listing failed", zap.String("job", job.ID), zap.Error(err))
		job.fail(err.Error())
		return
	}

	job.setTotal(len(files))
	if len(files) == 0 {
		job.complete()
		return
	}

	for _, f := range files {
		job.setCurrent(f.Filename)

		fetched, err := h.Gateway.FetchFile(ctx, job.SessionID, job.ChannelID, f.MessageID)
		if err != nil {
			h.Logger.Warn("job file failed", zap.String("job", job.ID), zap.Int64("message", f.MessageID), zap.Error(err))
			continue
		}

		key := path.Join(job.ID, path.Base(fetched.Filename))
		if err := h.Blobs.Save(key, fetched.Data); err != nil {
			h.Logger.Warn("job blob save failed", zap.String("key", key), zap.Error(err))
			continue
		}

		job.addFile(models.JobFile{
			Filename:    fetched.Filename,
			Size:        fetched.Size,
			DownloadURL: transport.PathJobFiles + job.ID + "/" + fetched.Filename,
		})
	}

	job.complete()
	h.Logger.Info("job completed", zap.String("job", job.ID))
}

// HandleJobStatus reports a job's progress. Jobs are only visible to
// the session that started them.
func (h *Handler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, transport.PathJobStatus)
	job, ok := h.Jobs.Get(jobID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "Download not found")
		return
	}
	if job.SessionID != sessionFromContext(r.Context()) {
		h.writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	h.writeJSON(w, http.StatusOK, job.Snapshot())
}

// HandleJobFile serves a file a background job has stored.
func (h *Handler) HandleJobFile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, transport.PathJobFiles)
	jobID, filename, ok := strings.Cut(rest, "/")
	if !ok || filename == "" {
		h.writeError(w, http.StatusBadRequest, "job id and filename required")
		return
	}

	job, found := h.Jobs.Get(jobID)
	if !found {
		h.writeError(w, http.StatusNotFound, "Download not found")
		return
	}
	if job.SessionID != sessionFromContext(r.Context()) {
		h.writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	data, err := h.Blobs.Get(path.Join(jobID, path.Base(filename)))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(path.Base(filename)))
	_, _ = w.Write(data)
}
