package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/logging"
	"github.com/chromedevtools/releng/internal/models"
	"github.com/chromedevtools/releng/internal/progress"
)

// Publisher uploads tasks one at a time and stops at the first failure.
// Uploads that already succeeded are left in place.
type Publisher struct {
	backend Backend
	out     io.Writer
	ui      progress.UI
	logger  *logging.Logger
	timeout time.Duration

	states []models.TaskState
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithOutput sets where successful URLs are printed, one per line.
func WithOutput(w io.Writer) Option {
	return func(p *Publisher) { p.out = w }
}

// WithProgress sets the progress UI.
func WithProgress(ui progress.UI) Option {
	return func(p *Publisher) { p.ui = ui }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// WithTimeout bounds each upload. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) { p.timeout = d }
}

// NewPublisher creates a publisher for backend. By default URLs go to
// stdout, progress is discarded and each upload may take DefaultUploadTimeout.
func NewPublisher(backend Backend, opts ...Option) *Publisher {
	p := &Publisher{
		backend: backend,
		out:     os.Stdout,
		ui:      progress.NopUI{},
		logger:  logging.NewNopLogger(),
		timeout: constants.DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preflight checks that every task file exists and is a regular file.
func Preflight(tasks []models.UploadTask) error {
	for _, t := range tasks {
		info, err := os.Stat(t.Path)
		if err != nil {
			return fmt.Errorf("artifact not found: %w", err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("artifact %s is not a regular file", t.Path)
		}
	}
	return nil
}

// Publish uploads tasks in order. It returns the results of the uploads
// that succeeded, in submission order, and writes each URL to the output.
//
// A status other than 201 stops the run with *UploadFailedError. A transport
// error stops it with an error naming the file. Either way the remaining
// tasks stay pending.
func (p *Publisher) Publish(ctx context.Context, tasks []models.UploadTask) ([]models.UploadResult, error) {
	p.states = make([]models.TaskState, len(tasks))
	results := make([]models.UploadResult, 0, len(tasks))

	for i, task := range tasks {
		p.states[i] = models.TaskInFlight
		log := p.logger.With().Str("file", task.Path).Str("backend", p.backend.Name()).Logger()
		log.Debug().Int("task", i+1).Int("of", len(tasks)).Msg("upload started")

		result, err := p.publishOne(ctx, task)
		if err != nil {
			p.states[i] = models.TaskFailed
			log.Error().Err(err).Msg("upload failed")
			return results, err
		}

		p.states[i] = models.TaskSucceeded
		results = append(results, *result)
		log.Info().Str("url", result.URL).Msg("uploaded")

		if result.URL == "" {
			log.Warn().Msg("endpoint returned no URL")
			continue
		}
		if _, err := fmt.Fprintln(p.out, result.URL); err != nil {
			return results, fmt.Errorf("failed to report URL: %w", err)
		}
	}
	return results, nil
}

// States returns the state of every task of the last Publish call.
func (p *Publisher) States() []models.TaskState {
	return append([]models.TaskState(nil), p.states...)
}

func (p *Publisher) publishOne(ctx context.Context, task models.UploadTask) (*models.UploadResult, error) {
	f, err := os.Open(task.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", task.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", task.Path, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	bar := p.ui.AddFileBar(task.Path, info.Size())
	result, err := p.backend.Upload(ctx, task, bar.ProxyReader(f), info.Size())
	if err != nil {
		err = fmt.Errorf("failed to upload %s: %w", task.Path, err)
		bar.Complete("", err)
		return nil, err
	}

	if result.StatusCode != constants.CreatedStatus {
		failed := &UploadFailedError{
			File:       task.Path,
			StatusCode: result.StatusCode,
			Reason:     result.Reason,
		}
		bar.Complete("", failed)
		return nil, failed
	}

	bar.Complete(result.URL, nil)
	return result, nil
}
