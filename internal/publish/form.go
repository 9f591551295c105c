package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/models"
)

// Multipart field names understood by the download area.
const (
	formFieldSummary = "summary"
	formFieldLabel   = "label"
	formFieldFile    = "filename"
)

// maxDrainBytes bounds how much of a response body is read before closing,
// so the connection can be reused.
const maxDrainBytes = 64 << 10

// FormBackend posts each file as multipart/form-data with HTTP Basic auth.
type FormBackend struct {
	endpoint string
	client   *nethttp.Client
	creds    models.Credentials
}

// NewFormBackend creates a form backend posting to endpoint.
func NewFormBackend(endpoint string, client *nethttp.Client, creds models.Credentials) (*FormBackend, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if client == nil {
		client = nethttp.DefaultClient
	}
	return &FormBackend{endpoint: endpoint, client: client, creds: creds}, nil
}

// Name implements Backend.
func (b *FormBackend) Name() string {
	return constants.BackendForm
}

// Upload implements Backend. The archive is streamed between the
// pre-rendered form header and trailer, so it is never held in memory and
// the request carries a Content-Length when size is known.
func (b *FormBackend) Upload(ctx context.Context, task models.UploadTask, body io.Reader, size int64) (*models.UploadResult, error) {
	form, err := newFormEnvelope(task)
	if err != nil {
		return nil, err
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, b.endpoint, form.body(body))
	if err != nil {
		return nil, err
	}
	req.ContentLength = form.contentLength(size)
	req.Header.Set("Content-Type", form.contentType)
	req.SetBasicAuth(b.creds.User, b.creds.Secret.Reveal())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	result := &models.UploadResult{
		Path:       task.Path,
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
	}
	if resp.StatusCode == constants.CreatedStatus {
		loc, err := resp.Location()
		switch {
		case err == nil:
			result.URL = loc.String()
		case !errors.Is(err, nethttp.ErrNoLocation):
			return nil, fmt.Errorf("invalid Location header: %w", err)
		}
	}
	return result, nil
}

// formEnvelope is a multipart body without the file contents: the fields
// and file part header go before the archive, the closing boundary after it.
type formEnvelope struct {
	header      []byte
	trailer     []byte
	contentType string
}

func newFormEnvelope(task models.UploadTask) (*formEnvelope, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField(formFieldSummary, task.Summary); err != nil {
		return nil, err
	}
	for _, label := range task.Labels {
		if err := mw.WriteField(formFieldLabel, label); err != nil {
			return nil, err
		}
	}
	if _, err := mw.CreateFormFile(formFieldFile, filepath.Base(task.Path)); err != nil {
		return nil, err
	}
	header := bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return &formEnvelope{
		header:      header,
		trailer:     bytes.Clone(buf.Bytes()),
		contentType: mw.FormDataContentType(),
	}, nil
}

func (f *formEnvelope) body(file io.Reader) io.Reader {
	return io.MultiReader(bytes.NewReader(f.header), file, bytes.NewReader(f.trailer))
}

// contentLength returns -1 (chunked) when the file size is unknown.
func (f *formEnvelope) contentLength(size int64) int64 {
	if size < 0 {
		return -1
	}
	return int64(len(f.header)) + size + int64(len(f.trailer))
}

// reasonPhrase extracts "Created" from "201 Created".
func reasonPhrase(resp *nethttp.Response) string {
	reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if reason == "" || reason == resp.Status {
		return nethttp.StatusText(resp.StatusCode)
	}
	return reason
}
