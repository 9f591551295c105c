package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/chromedevtools/releng/internal/config"
	"github.com/chromedevtools/releng/internal/constants"
	internalhttp "github.com/chromedevtools/releng/internal/http"
	"github.com/chromedevtools/releng/internal/models"
)

// S3Backend stores each file as an object with PutObject.
// The user name is the access key id and the secret the secret access key.
type S3Backend struct {
	client   *s3.Client
	bucket   string
	prefix   string
	region   string
	endpoint string
}

// NewS3Backend creates an S3 client that sends requests through httpClient.
// A non-empty cfg.Endpoint selects an S3-compatible store with path-style
// addressing.
func NewS3Backend(ctx context.Context, cfg config.S3Config, httpClient *nethttp.Client, creds models.Credentials) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, config.ErrMissingBucket
	}
	if cfg.Region == "" {
		return nil, config.ErrMissingRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(awscreds.NewStaticCredentialsProvider(
			creds.User,
			creds.Secret.Reveal(),
			"",
		)),
	}
	awsCfg, err := loadAWSConfig(ctx, httpClient, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		// The body is a stream that cannot be rewound for hashing.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.APIOptions = append(o.APIOptions, v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware)
	})

	return &S3Backend{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// loadAWSConfig loads the shared AWS config with httpClient's connection
// settings.
//
// The SDK only applies AWS_CA_BUNDLE to a client it builds itself, so the
// proxy and TLS settings of httpClient are copied onto an SDK buildable
// client. NTLM negotiation is put back on top once the config is loaded.
func loadAWSConfig(ctx context.Context, httpClient *nethttp.Client, opts ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
	base, ntlm := internalhttp.BaseTransport(httpClient)
	switch {
	case base != nil:
		opts = append(opts, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().
			WithTransportOptions(func(tr *nethttp.Transport) {
				internalhttp.CopyTransport(tr, base)
			})))
	case httpClient != nil:
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if ntlm && base != nil {
		built, ok := awsCfg.HTTPClient.(*awshttp.BuildableClient)
		if !ok {
			return aws.Config{}, fmt.Errorf("unexpected AWS HTTP client %T", awsCfg.HTTPClient)
		}
		awsCfg.HTTPClient = internalhttp.WrapNTLM(built.GetTransport())
	}
	return awsCfg, nil
}

// Name implements Backend.
func (b *S3Backend) Name() string {
	return constants.BackendS3
}

// Upload implements Backend. A stored object is reported as 201 Created;
// an S3 error response is reported with its HTTP status and error code.
func (b *S3Backend) Upload(ctx context.Context, task models.UploadTask, body io.Reader, size int64) (*models.UploadResult, error) {
	key, err := objectName(b.prefix, task.Path)
	if err != nil {
		return nil, err
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType(task.Path)),
		Metadata:      map[string]string{constants.SummaryMetadataKey: task.Summary},
	})
	if err != nil {
		if result, ok := s3ErrorResult(task, err); ok {
			return result, nil
		}
		return nil, err
	}

	objectURL, err := b.objectURL(key)
	if err != nil {
		return nil, err
	}
	return &models.UploadResult{
		Path:       task.Path,
		StatusCode: constants.CreatedStatus,
		Reason:     constants.CreatedReason,
		URL:        objectURL,
	}, nil
}

func (b *S3Backend) objectURL(key string) (string, error) {
	if b.endpoint != "" {
		return url.JoinPath(b.endpoint, b.bucket, key)
	}
	return url.JoinPath(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", b.bucket, b.region), key)
}

// httpStatusError is implemented by SDK errors that carry an HTTP response.
// S3 wraps the generic response error in its own type, so match on behavior.
type httpStatusError interface {
	HTTPStatusCode() int
}

// s3ErrorResult converts an error response from S3 into an UploadResult.
// It reports false for errors that carry no HTTP response.
func s3ErrorResult(task models.UploadTask, err error) (*models.UploadResult, bool) {
	var respErr httpStatusError
	if !errors.As(err, &respErr) {
		return nil, false
	}

	reason := nethttp.StatusText(respErr.HTTPStatusCode())
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		reason = apiErr.ErrorCode()
	}
	return &models.UploadResult{
		Path:       task.Path,
		StatusCode: respErr.HTTPStatusCode(),
		Reason:     reason,
	}, true
}
