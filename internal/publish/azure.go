package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/chromedevtools/releng/internal/config"
	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/models"
)

// AzureBackend stores each file as a block blob.
// The user name is the storage account and the secret the account key.
type AzureBackend struct {
	client    *azblob.Client
	container string
}

// NewAzureBackend creates a blob client authenticated with a shared key.
// An empty cfg.ServiceURL defaults to the account's public blob endpoint.
func NewAzureBackend(cfg config.AzureConfig, httpClient *nethttp.Client, creds models.Credentials) (*AzureBackend, error) {
	if cfg.Container == "" {
		return nil, config.ErrMissingContainer
	}

	cred, err := azblob.NewSharedKeyCredential(creds.User, creds.Secret.Reveal())
	if err != nil {
		// The SDK error may quote the key, so it is not wrapped.
		return nil, fmt.Errorf("invalid account key for storage account %s", creds.User)
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", creds.User)
	}

	opts := &azblob.ClientOptions{}
	if httpClient != nil {
		opts.ClientOptions = azcore.ClientOptions{
			Transport: httpClient,
		}
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureBackend{client: client, container: cfg.Container}, nil
}

// Name implements Backend.
func (b *AzureBackend) Name() string {
	return constants.BackendAzure
}

// Upload implements Backend. A committed blob is reported as 201 Created;
// a storage error is reported with its status and error code.
func (b *AzureBackend) Upload(ctx context.Context, task models.UploadTask, body io.Reader, size int64) (*models.UploadResult, error) {
	name, err := objectName("", task.Path)
	if err != nil {
		return nil, err
	}

	ct := contentType(task.Path)
	summary := task.Summary
	_, err = b.client.UploadStream(ctx, b.container, name, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
		Metadata:    map[string]*string{constants.SummaryMetadataKey: &summary},
	})
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			reason := respErr.ErrorCode
			if reason == "" {
				reason = nethttp.StatusText(respErr.StatusCode)
			}
			return &models.UploadResult{
				Path:       task.Path,
				StatusCode: respErr.StatusCode,
				Reason:     reason,
			}, nil
		}
		return nil, err
	}

	blobURL, err := url.JoinPath(b.client.URL(), b.container, name)
	if err != nil {
		return nil, err
	}
	return &models.UploadResult{
		Path:       task.Path,
		StatusCode: constants.CreatedStatus,
		Reason:     constants.CreatedReason,
		URL:        blobURL,
	}, nil
}
