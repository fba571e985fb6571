package transport

// Constants for default server configuration.
const (
	// DefaultServerPort is the default port the server listens on.
	DefaultServerPort = ":8000"
	// DefaultServerURL is the default URL for the server.
	DefaultServerURL = "http://localhost:8000"
)

// API endpoint paths shared by client and server.
const (
	PathSendCode    = "/api/auth/send-code"
	PathVerifyCode  = "/api/auth/verify-code"
	PathListFiles   = "/api/channel/list"
	PathDownload    = "/api/file/download/"
	PathDownloadAll = "/api/file/download-all"
	PathJobStart    = "/api/download/start"
	PathJobStatus   = "/api/download/status/"
	PathJobFiles    = "/api/download/files/"
)
