package transcription

import (
	"fmt"
	"time"
)

// UploadError means the service refused the audio payload.
type UploadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio upload failed: %v", e.Err)
	}
	return fmt.Sprintf("audio upload rejected (status %d): %s", e.StatusCode, e.Body)
}

func (e *UploadError) Unwrap() error { return e.Err }

type SubmitError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription request failed: %v", e.Err)
	}
	return fmt.Sprintf("transcription request rejected (status %d): %s", e.StatusCode, e.Body)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// TranscriptionError is a failure reported by the service for a job. The
// message is passed through untouched.
type TranscriptionError struct {
	JobID   string
	Message string
}

func (e *TranscriptionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transcription %s failed", e.JobID)
	}
	return e.Message
}

type TimeoutError struct {
	JobID  string
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transcript %s not ready after %s", e.JobID, e.Waited)
}
