package publish

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromedevtools/releng/internal/logging"
	"github.com/chromedevtools/releng/internal/models"
)

// fakeBackend answers each upload with the next scripted status.
type fakeBackend struct {
	statuses []int
	err      error
	calls    []string
	bodies   []string
	deadline []bool
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Upload(ctx context.Context, task models.UploadTask, body io.Reader, size int64) (*models.UploadResult, error) {
	n := len(b.calls)
	b.calls = append(b.calls, task.Path)
	_, hasDeadline := ctx.Deadline()
	b.deadline = append(b.deadline, hasDeadline)

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != size {
		return nil, errors.New("size mismatch")
	}
	b.bodies = append(b.bodies, string(data))

	if b.err != nil {
		return nil, b.err
	}
	status := b.statuses[n]
	result := &models.UploadResult{Path: task.Path, StatusCode: status, Reason: "Reason"}
	if status == 201 {
		result.URL = "https://downloads.test/" + filepath.Base(task.Path)
	}
	return result, nil
}

// releaseTasks writes the three release archives into a temp result dir.
func releaseTasks(t *testing.T) []models.UploadTask {
	t.Helper()
	dir := t.TempDir()
	tasks, err := BuildTasks(dir, "0.3.9", "0.2.1", nil)
	require.NoError(t, err)
	for _, task := range tasks {
		require.NoError(t, os.WriteFile(task.Path, []byte("content of "+filepath.Base(task.Path)), 0o644))
	}
	return tasks
}

func TestPublish_AllCreated(t *testing.T) {
	tasks := releaseTasks(t)
	backend := &fakeBackend{statuses: []int{201, 201, 201}}
	var out bytes.Buffer

	p := NewPublisher(backend, WithOutput(&out))
	results, err := p.Publish(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t,
		"https://downloads.test/org.chromium.sdk-wipbackends-0.3.9-0.2.1.tar\n"+
			"https://downloads.test/org.chromium.sdk-lib-0.3.9.tar\n"+
			"https://downloads.test/chromedevtools-0.3.9-wipbackends-0.2.1-site.zip\n",
		out.String())

	for i, task := range tasks {
		assert.Equal(t, task.Path, backend.calls[i])
		assert.Equal(t, task.Path, results[i].Path)
		assert.Equal(t, "content of "+filepath.Base(task.Path), backend.bodies[i])
	}
	assert.Equal(t, []models.TaskState{models.TaskSucceeded, models.TaskSucceeded, models.TaskSucceeded}, p.States())
}

func TestPublish_StopsAtFirstRejection(t *testing.T) {
	tasks := releaseTasks(t)
	backend := &fakeBackend{statuses: []int{201, 403, 201}}
	var out bytes.Buffer

	p := NewPublisher(backend, WithOutput(&out))
	results, err := p.Publish(context.Background(), tasks)

	var failed *UploadFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, tasks[1].Path, failed.File)
	assert.Equal(t, 403, failed.StatusCode)
	assert.Equal(t, "Reason", failed.Reason)

	assert.Len(t, backend.calls, 2, "no upload after the rejected one")
	require.Len(t, results, 1)
	assert.Equal(t, tasks[0].Path, results[0].Path)
	assert.Equal(t, "https://downloads.test/org.chromium.sdk-wipbackends-0.3.9-0.2.1.tar\n", out.String())
	assert.Equal(t, []models.TaskState{models.TaskSucceeded, models.TaskFailed, models.TaskPending}, p.States())
}

// TestPublish_OnlyCreatedIsSuccess verifies other 2xx statuses fail the run.
func TestPublish_OnlyCreatedIsSuccess(t *testing.T) {
	for _, status := range []int{200, 202, 204, 302, 400, 500} {
		tasks := releaseTasks(t)
		backend := &fakeBackend{statuses: []int{status, 201, 201}}

		_, err := NewPublisher(backend, WithOutput(io.Discard)).Publish(context.Background(), tasks)

		var failed *UploadFailedError
		require.ErrorAs(t, err, &failed, "status %d", status)
		assert.Equal(t, status, failed.StatusCode)
		assert.Len(t, backend.calls, 1)
	}
}

func TestPublish_TransportError(t *testing.T) {
	tasks := releaseTasks(t)
	transportErr := errors.New("connection reset by peer")
	backend := &fakeBackend{err: transportErr}

	p := NewPublisher(backend, WithOutput(io.Discard))
	results, err := p.Publish(context.Background(), tasks)

	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
	assert.Contains(t, err.Error(), tasks[0].Path)
	var failed *UploadFailedError
	assert.False(t, errors.As(err, &failed))

	assert.Empty(t, results)
	assert.Len(t, backend.calls, 1)
	assert.Equal(t, []models.TaskState{models.TaskFailed, models.TaskPending, models.TaskPending}, p.States())
}

func TestPublish_MissingFile(t *testing.T) {
	tasks := releaseTasks(t)
	require.NoError(t, os.Remove(tasks[1].Path))
	backend := &fakeBackend{statuses: []int{201, 201, 201}}

	p := NewPublisher(backend, WithOutput(io.Discard))
	_, err := p.Publish(context.Background(), tasks)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Len(t, backend.calls, 1)
	assert.Equal(t, models.TaskFailed, p.States()[1])
}

func TestPublish_Timeout(t *testing.T) {
	tasks := releaseTasks(t)

	backend := &fakeBackend{statuses: []int{201, 201, 201}}
	_, err := NewPublisher(backend, WithOutput(io.Discard), WithTimeout(time.Minute)).
		Publish(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, backend.deadline)

	backend = &fakeBackend{statuses: []int{201, 201, 201}}
	_, err = NewPublisher(backend, WithOutput(io.Discard), WithTimeout(0)).
		Publish(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, backend.deadline)
}

func TestPublish_Logs(t *testing.T) {
	tasks := releaseTasks(t)
	var logs bytes.Buffer
	backend := &fakeBackend{statuses: []int{201, 500}}

	_, err := NewPublisher(backend, WithOutput(io.Discard), WithLogger(logging.NewLogger(&logs))).
		Publish(context.Background(), tasks)
	require.Error(t, err)

	assert.Contains(t, logs.String(), "uploaded")
	assert.Contains(t, logs.String(), "upload failed")
	assert.Contains(t, logs.String(), filepath.Base(tasks[1].Path))
}

func TestPreflight(t *testing.T) {
	tasks := releaseTasks(t)
	require.NoError(t, Preflight(tasks))

	require.NoError(t, os.Remove(tasks[2].Path))
	err := Preflight(tasks)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, strings.Contains(err.Error(), "chromedevtools-0.3.9-wipbackends-0.2.1-site.zip"))

	require.NoError(t, os.Mkdir(tasks[2].Path, 0o755))
	err = Preflight(tasks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestUploadFailedError(t *testing.T) {
	err := &UploadFailedError{File: "lib.tar", StatusCode: 403, Reason: "Forbidden"}
	assert.Equal(t, "upload of lib.tar failed with status 403: Forbidden", err.Error())

	err.Reason = ""
	assert.Equal(t, "upload of lib.tar failed with status 403", err.Error())
}
