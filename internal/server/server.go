package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

// Server represents the HTTP server.
type Server struct {
	Port    string
	Handler *Handler
	Server  *http.Server
	Logger  *zap.Logger
}

// NewServer initializes a new Server around the given gateway. Blob
// storage is chosen via STORAGE_TYPE: "s3" (AWS_BUCKET, AWS_REGION) or
// local disk under dataDir.
func NewServer(port, dataDir string, gw Gateway, logger *zap.Logger) (*Server, error) {
	// Load .env file (optional)
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using defaults/env vars")
	}

	var blobs BlobStore
	if os.Getenv("STORAGE_TYPE") == "s3" {
		bucket := os.Getenv("AWS_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("AWS_BUCKET required for s3 storage")
		}
		logger.Info("using S3 storage", zap.String("bucket", bucket))
		store, err := NewS3BlobStore(context.Background(), bucket, os.Getenv("AWS_REGION"))
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
		}
		blobs = store
	} else {
		if dataDir == "" {
			dataDir = os.Getenv("DATA_DIR")
		}
		if dataDir == "" {
			dataDir = "downloads"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to init downloads dir: %w", err)
		}
		logger.Info("using local storage", zap.String("dir", dataDir))
		blobs = NewLocalBlobStore(dataDir)
	}

	h := NewHandler(gw, blobs, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Ping(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathSendCode, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandleSendCode(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathVerifyCode, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandleVerifyCode(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathListFiles, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.AuthMiddleware(h.HandleListFiles)(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathDownload, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.AuthMiddleware(h.HandleDownloadOne)(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathDownloadAll, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.AuthMiddleware(h.HandleDownloadAll)(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathJobStart, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.AuthMiddleware(h.HandleStartJob)(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathJobStatus, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.AuthMiddleware(h.HandleJobStatus)(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc(transport.PathJobFiles, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.AuthMiddleware(h.HandleJobFile)(w, r)
		} else {
			h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// Ensure port has colon
	if port == "" {
		port = transport.DefaultServerPort
	}
	if port[0] != ':' {
		port = ":" + port
	}

	return &Server{
		Port:    port,
		Handler: h,
		Server:  &http.Server{Addr: port, Handler: mux},
		Logger:  logger,
	}, nil
}

// Start starts the server.
func (s *Server) Start() error {
	s.Logger.Info("server starting", zap.String("addr", s.Server.Addr))
	return s.Server.ListenAndServe()
}
