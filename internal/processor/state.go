package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"voice-appointments-go/internal/telephony"
	"voice-appointments-go/internal/transcription"
)

// State is a step of one call run.
type State string

const (
	StatePlacing           State = "placing"
	StateAwaitingRecording State = "awaiting_recording"
	StateDownloadingAudio  State = "downloading_audio"
	StateTranscribing      State = "transcribing"
	StateExtracting        State = "extracting"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// next lists the only forward transition of each working state. Failed is
// reachable from all of them.
var next = map[State]State{
	StatePlacing:           StateAwaitingRecording,
	StateAwaitingRecording: StateDownloadingAudio,
	StateDownloadingAudio:  StateTranscribing,
	StateTranscribing:      StateExtracting,
	StateExtracting:        StateDone,
}

func validTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	return to == StateFailed || next[from] == to
}

var ErrCallInProgress = errors.New("a call is already in progress")

// StageError is the terminal failure of a run, tagged with the state it
// happened in.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// HTTPStatus maps the failure to the status the trigger endpoint answers with.
func (e *StageError) HTTPStatus() int {
	var (
		placement *telephony.CallPlacementError
		retrieval *telephony.RetrievalError
		upload    *transcription.UploadError
		submit    *transcription.SubmitError
		service   *transcription.TranscriptionError
		recTO     *telephony.RecordingTimeoutError
		trTO      *transcription.TimeoutError
	)
	switch {
	case errors.As(e.Err, &recTO), errors.As(e.Err, &trTO), errors.Is(e.Err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(e.Err, &placement), errors.As(e.Err, &retrieval), errors.As(e.Err, &upload),
		errors.As(e.Err, &submit), errors.As(e.Err, &service):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(state State, err error) *StageError {
	if err == nil {
		err = fmt.Errorf("%s failed", state)
	}
	return &StageError{State: state, Err: err}
}
