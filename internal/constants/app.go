package constants

import (
	"time"
)

// Build layout
const (
	// PluginsDirName - subdirectory of the build directory holding the built bundles
	PluginsDirName = "plugins"

	// PropertiesFileName - file written by extract into the output directory
	PropertiesFileName = "pluginVersion.properties"

	// PropertiesFileMode - permissions for the properties file
	PropertiesFileMode = 0o644
)

// Upload backends
const (
	BackendForm  = "form"
	BackendS3    = "s3"
	BackendAzure = "azure"

	// DefaultBackend - multipart form upload with Basic auth
	DefaultBackend = BackendForm

	// DefaultEndpoint - project download area of the hosting service
	DefaultEndpoint = "https://chromedevtools.googlecode.com/files"

	// CreatedStatus - the only status accepted as a successful upload
	CreatedStatus = 201

	// CreatedReason - reason reported by backends that do not return a reason phrase
	CreatedReason = "Created"

	// SummaryMetadataKey - object metadata key carrying the task summary (s3, azure)
	SummaryMetadataKey = "summary"
)

// Timeouts
const (
	// DefaultUploadTimeout - per-file upload timeout (30 minutes)
	// Archives are tens of MB; this only guards against a hung connection.
	DefaultUploadTimeout = 30 * time.Minute
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// DefaultProxyPort - used when proxy.host is set without a port
	DefaultProxyPort = 8080
)

// Environment
const (
	// EnvPrefix - prefix for configuration environment variables (RELENG_BACKEND, ...)
	EnvPrefix = "RELENG"
)
