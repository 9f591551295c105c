package models

// UploadTask is one local file to publish with its human-readable summary.
type UploadTask struct {
	Path    string   // Local file path
	Summary string   // Description attached to the upload as metadata
	Labels  []string // Optional endpoint labels (form backend only)
}

// UploadResult is the endpoint's answer to a single upload.
type UploadResult struct {
	Path       string // Local file path of the task
	StatusCode int    // Status returned by the endpoint (201 on success)
	Reason     string // Reason phrase or error code
	URL        string // Public URL of the uploaded object (success only)
}

// TaskState tracks an upload task through a publish run.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskInFlight
	TaskSucceeded
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskInFlight:
		return "in-flight"
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s TaskState) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}
