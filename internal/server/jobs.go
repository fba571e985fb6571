package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nirmitsaini1024/tgrab/internal/models"
)

// Job is a background download of a whole channel. Fields are guarded
// by mu; handlers read through Snapshot.
type Job struct {
	ID        string
	SessionID string
	ChannelID int64

	mu          sync.Mutex
	status      string
	totalFiles  int
	downloaded  int
	files       []models.JobFile
	currentFile string
	err         string
}

// Snapshot returns a consistent copy of the job's progress.
func (j *Job) Snapshot() models.JobStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	progress := 0.0
	if j.totalFiles > 0 {
		progress = float64(j.downloaded) / float64(j.totalFiles) * 100
	}
	if j.status == models.JobCompleted {
		progress = 100
	}

	files := make([]models.JobFile, len(j.files))
	copy(files, j.files)

	return models.JobStatusResponse{
		JobID:       j.ID,
		Status:      j.status,
		Progress:    progress,
		TotalFiles:  j.totalFiles,
		Downloaded:  j.downloaded,
		Files:       files,
		CurrentFile: j.currentFile,
		Error:       j.err,
	}
}

func (j *Job) setTotal(n int) {
	j.mu.Lock()
	j.totalFiles = n
	j.status = models.JobInProgress
	j.mu.Unlock()
}

func (j *Job) setCurrent(name string) {
	j.mu.Lock()
	j.currentFile = name
	j.mu.Unlock()
}

func (j *Job) addFile(f models.JobFile) {
	j.mu.Lock()
	j.files = append(j.files, f)
	j.downloaded++
	j.mu.Unlock()
}

func (j *Job) complete() {
	j.mu.Lock()
	j.status = models.JobCompleted
	j.currentFile = ""
	j.mu.Unlock()
}

func (j *Job) fail(reason string) {
	j.mu.Lock()
	j.status = models.JobFailed
	j.err = reason
	j.currentFile = ""
	j.mu.Unlock()
}

// Jobs is the in-memory registry of background jobs.
type Jobs struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobs creates an empty registry.
func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

// Create registers a new pending job for a session and channel.
func (s *Jobs) Create(sessionID string, channelID int64) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		ChannelID: channelID,
		status:    models.JobPending,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a job by id.
func (s *Jobs) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}
