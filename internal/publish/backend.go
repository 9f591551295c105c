package publish

import (
	"context"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"path/filepath"

	"github.com/chromedevtools/releng/internal/config"
	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/models"
	"github.com/chromedevtools/releng/internal/validation"
)

// Backend sends one file to the download area.
//
// Upload returns the endpoint's answer, whatever its status. A non-nil error
// means no answer was obtained (connection failure, timeout, cancellation).
type Backend interface {
	Name() string
	Upload(ctx context.Context, task models.UploadTask, body io.Reader, size int64) (*models.UploadResult, error)
}

// NewBackend creates the backend selected by cfg.Backend. All backends send
// their requests through httpClient so proxy settings apply uniformly.
func NewBackend(ctx context.Context, cfg *config.Config, httpClient *nethttp.Client, creds models.Credentials) (Backend, error) {
	if creds.User == "" {
		return nil, fmt.Errorf("user name cannot be empty")
	}
	if creds.Secret.Empty() {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	switch cfg.Backend {
	case constants.BackendForm, "":
		return NewFormBackend(cfg.Endpoint, httpClient, creds)
	case constants.BackendS3:
		return NewS3Backend(ctx, cfg.S3, httpClient, creds)
	case constants.BackendAzure:
		return NewAzureBackend(cfg.Azure, httpClient, creds)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// objectName returns the remote name of a task: its base name, optionally
// under prefix.
func objectName(prefix, path string) (string, error) {
	name := filepath.Base(path)
	if err := validation.ValidateFilename(name); err != nil {
		return "", err
	}
	return prefix + name, nil
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
