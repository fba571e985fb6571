package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nirmitsaini1024/tgrab/internal/models"
)

func authedGet(t *testing.T, h http.HandlerFunc, path, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req = req.WithContext(context.WithValue(req.Context(), sessionContextKey, sessionID))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandleStartJob(t *testing.T) {
	gw := newFakeGateway()
	gw.files = []models.ChannelFile{{MessageID: 1, Filename: "a.txt"}}
	gw.content[1] = []byte("aaa")
	h := newTestHandler(gw, t)

	rr := authedPost(t, h.HandleStartJob, "/api/download/start", "sess-1", models.StartJobRequest{Channel: "@test"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.StartJobResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.JobID == "" || resp.Status != "started" {
		t.Fatalf("Unexpected start response: %+v", resp)
	}

	job, ok := h.Jobs.Get(resp.JobID)
	if !ok {
		t.Fatal("Job not registered")
	}

	// Wait for the background run to finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := job.Snapshot()
		if snap.Status == models.JobCompleted || snap.Status == models.JobFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Job did not finish: %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunJob(t *testing.T) {
	gw := newFakeGateway()
	gw.files = []models.ChannelFile{
		{MessageID: 1, Filename: "a.txt"},
		{MessageID: 2, Filename: "b.txt"},
		{MessageID: 3, Filename: "c.txt"},
	}
	gw.content[1] = []byte("aaa")
	gw.content[3] = []byte("ccc")
	gw.fetchErr[2] = errors.New("transfer failed")
	h := newTestHandler(gw, t)

	job := h.Jobs.Create("sess-1", gw.channelID)
	h.runJob(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != models.JobCompleted {
		t.Fatalf("Expected completed, got %q (err %q)", snap.Status, snap.Error)
	}
	if snap.TotalFiles != 3 {
		t.Errorf("Expected 3 total files, got %d", snap.TotalFiles)
	}
	// Per-file failures are skipped, not fatal.
	if snap.Downloaded != 2 || len(snap.Files) != 2 {
		t.Errorf("Expected 2 downloaded, got %d (%d entries)", snap.Downloaded, len(snap.Files))
	}
	if snap.Progress != 100 {
		t.Errorf("Completed job must report 100%%, got %f", snap.Progress)
	}
	for _, f := range snap.Files {
		if f.DownloadURL == "" {
			t.Errorf("File %q missing download URL", f.Filename)
		}
	}

	// Stored files are retrievable via the job's blob keys.
	if _, err := h.Blobs.Get(job.ID + "/a.txt"); err != nil {
		t.Errorf("Expected a.txt stored under job dir: %v", err)
	}
}

func TestRunJobListingFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr = errors.New("history unavailable")
	h := newTestHandler(gw, t)

	job := h.Jobs.Create("sess-1", gw.channelID)
	h.runJob(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != models.JobFailed {
		t.Fatalf("Expected failed, got %q", snap.Status)
	}
	if snap.Error != "history unavailable" {
		t.Errorf("Expected listing error surfaced, got %q", snap.Error)
	}
}

func TestRunJobEmptyChannel(t *testing.T) {
	gw := newFakeGateway()
	h := newTestHandler(gw, t)

	job := h.Jobs.Create("sess-1", gw.channelID)
	h.runJob(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != models.JobCompleted || snap.TotalFiles != 0 {
		t.Errorf("Empty channel should complete immediately: %+v", snap)
	}
}

func TestHandleJobStatus(t *testing.T) {
	h := newTestHandler(newFakeGateway(), t)
	job := h.Jobs.Create("sess-1", 123)

	// Owner sees the job.
	rr := authedGet(t, h.HandleJobStatus, "/api/download/status/"+job.ID, "sess-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var resp models.JobStatusResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.JobID != job.ID || resp.Status != models.JobPending {
		t.Errorf("Unexpected status: %+v", resp)
	}

	// Unknown job.
	rr = authedGet(t, h.HandleJobStatus, "/api/download/status/nope", "sess-1")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown job, got %d", rr.Code)
	}

	// Another session is denied.
	rr = authedGet(t, h.HandleJobStatus, "/api/download/status/"+job.ID, "sess-2")
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign session, got %d", rr.Code)
	}
}

func TestHandleJobFile(t *testing.T) {
	h := newTestHandler(newFakeGateway(), t)
	job := h.Jobs.Create("sess-1", 123)
	if err := h.Blobs.Save(job.ID+"/a.txt", []byte("aaa")); err != nil {
		t.Fatal(err)
	}

	rr := authedGet(t, h.HandleJobFile, "/api/download/files/"+job.ID+"/a.txt", "sess-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "aaa" {
		t.Errorf("Body mismatch: %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="a.txt"` {
		t.Errorf("Unexpected Content-Disposition: %q", cd)
	}

	// Missing file.
	rr = authedGet(t, h.HandleJobFile, "/api/download/files/"+job.ID+"/missing.txt", "sess-1")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing file, got %d", rr.Code)
	}

	// Foreign session.
	rr = authedGet(t, h.HandleJobFile, "/api/download/files/"+job.ID+"/a.txt", "sess-2")
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign session, got %d", rr.Code)
	}
}
