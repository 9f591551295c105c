package publish

import "fmt"

// UploadFailedError is returned when the endpoint answered with anything
// other than 201 Created. The run stops at the first such answer.
type UploadFailedError struct {
	File       string // Local path of the rejected file
	StatusCode int    // Status returned by the endpoint
	Reason     string // Reason phrase or backend error code
}

func (e *UploadFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("upload of %s failed with status %d", e.File, e.StatusCode)
	}
	return fmt.Sprintf("upload of %s failed with status %d: %s", e.File, e.StatusCode, e.Reason)
}
