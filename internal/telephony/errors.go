package telephony

import (
	"fmt"
	"time"
)

// CallPlacementError is returned when the provider rejects the outbound call.
type CallPlacementError struct {
	StatusCode int
	Message    string
}

func (e *CallPlacementError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("call placement failed: %s", e.Message)
	}
	return fmt.Sprintf("call placement rejected (status %d): %s", e.StatusCode, e.Message)
}

type RecordingTimeoutError struct {
	CallSID string
	Waited  time.Duration
}

func (e *RecordingTimeoutError) Error() string {
	return fmt.Sprintf("no recording for call %s after %s", e.CallSID, e.Waited)
}

// RetrievalError is a failed recording download.
type RetrievalError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recording download failed: %v", e.Err)
	}
	return fmt.Sprintf("recording download failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
