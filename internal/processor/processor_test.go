package processor

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/poller"
	"voice-appointments-go/internal/telephony"
	"voice-appointments-go/internal/transcription"
	"voice-appointments-go/internal/types"
)

type fakePhone struct {
	placeErr  error
	awaitErr  error
	fetchErr  error
	awaitPoll poller.Config

	started chan struct{}
	block   chan struct{}
}

func (f *fakePhone) PlaceCall(ctx context.Context, call telephony.CallRequest) (*types.CallSession, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &types.CallSession{ID: "sess-1", CallSID: "CA1", CreatedAt: time.Now()}, nil
}

func (f *fakePhone) AwaitRecording(ctx context.Context, callSID string, poll poller.Config) (*types.Recording, error) {
	f.awaitPoll = poll
	if f.awaitErr != nil {
		return nil, f.awaitErr
	}
	return &types.Recording{SID: "RE1", CallSID: callSID, MediaURL: "https://media/RE1.mp3"}, nil
}

func (f *fakePhone) FetchAudio(ctx context.Context, rec *types.Recording) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	rec.Audio = []byte("audio")
	return rec.Audio, nil
}

type fakeSpeech struct {
	text  string
	err   error
	audio []byte
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audio []byte, poll poller.Config) (*types.TranscriptionJob, error) {
	f.audio = audio
	if f.err != nil {
		return nil, f.err
	}
	return &types.TranscriptionJob{ID: "job-1", Status: types.JobCompleted, Text: f.text}, nil
}

func newTestProcessor(phone *fakePhone, speech *fakeSpeech) (*Processor, *[]State) {
	p := New(phone, speech, Options{
		Call:           telephony.CallRequest{Announcement: "hello"},
		RecordingPoll:  poller.Config{Interval: 5 * time.Second, Timeout: 3 * time.Minute},
		TranscriptPoll: poller.Config{Interval: 5 * time.Second, Timeout: 2 * time.Minute},
	}, logger.Discard())
	p.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }

	var states []State
	p.Observe(func(t Transition) { states = append(states, t.To) })
	return p, &states
}

func TestRunSuccess(t *testing.T) {
	phone := &fakePhone{}
	speech := &fakeSpeech{text: "this is John Smith calling for the 15th of March at 3pm"}
	p, states := newTestProcessor(phone, speech)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := types.ExtractionResult{
		Name:       "John Smith",
		Date:       "2024-03-15",
		Time:       "15:00:00",
		Transcript: speech.text,
	}
	if res.ExtractionResult != want {
		t.Errorf("extraction = %+v, want %+v", res.ExtractionResult, want)
	}
	if res.Message != CompletedMessage || res.CallSID != "CA1" {
		t.Errorf("result = %+v", res)
	}
	if string(speech.audio) != "audio" {
		t.Errorf("transcriber got %q", speech.audio)
	}
	if phone.awaitPoll.Timeout != 3*time.Minute {
		t.Errorf("recording poll = %+v", phone.awaitPoll)
	}

	wantStates := []State{StateAwaitingRecording, StateDownloadingAudio, StateTranscribing, StateExtracting, StateDone}
	if !reflect.DeepEqual(*states, wantStates) {
		t.Errorf("states = %v, want %v", *states, wantStates)
	}
}

func TestRunTranscriptionErrorSkipsExtraction(t *testing.T) {
	phone := &fakePhone{}
	speech := &fakeSpeech{err: &transcription.TranscriptionError{JobID: "job-1", Message: "audio too short"}}
	p, states := newTestProcessor(phone, speech)

	extracted := false
	p.extract = func(string, time.Time) types.ExtractionResult {
		extracted = true
		return types.ExtractionResult{}
	}

	res, err := p.Run(context.Background())
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if se.Error() != "audio too short" {
		t.Errorf("message = %q", se.Error())
	}
	if se.State != StateTranscribing {
		t.Errorf("failed in %s, want %s", se.State, StateTranscribing)
	}
	if se.HTTPStatus() != http.StatusBadGateway {
		t.Errorf("status = %d", se.HTTPStatus())
	}
	if extracted {
		t.Error("extraction ran after a failed transcription")
	}

	wantStates := []State{StateAwaitingRecording, StateDownloadingAudio, StateTranscribing, StateFailed}
	if !reflect.DeepEqual(*states, wantStates) {
		t.Errorf("states = %v, want %v", *states, wantStates)
	}
}

func TestRunStageFailures(t *testing.T) {
	tests := []struct {
		name       string
		phone      *fakePhone
		speech     *fakeSpeech
		wantState  State
		wantStatus int
	}{
		{
			name:       "placement rejected",
			phone:      &fakePhone{placeErr: &telephony.CallPlacementError{StatusCode: 400, Message: "bad number"}},
			speech:     &fakeSpeech{},
			wantState:  StatePlacing,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "recording timeout",
			phone:      &fakePhone{awaitErr: &telephony.RecordingTimeoutError{CallSID: "CA1", Waited: time.Minute}},
			speech:     &fakeSpeech{},
			wantState:  StateAwaitingRecording,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "download failed",
			phone:      &fakePhone{fetchErr: &telephony.RetrievalError{StatusCode: 404, Body: "missing"}},
			speech:     &fakeSpeech{},
			wantState:  StateDownloadingAudio,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "upload rejected",
			phone:      &fakePhone{},
			speech:     &fakeSpeech{err: &transcription.UploadError{StatusCode: 422, Body: "bad audio"}},
			wantState:  StateTranscribing,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "transcription timeout",
			phone:      &fakePhone{},
			speech:     &fakeSpeech{err: &transcription.TimeoutError{JobID: "job-1", Waited: time.Minute}},
			wantState:  StateTranscribing,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "unexpected",
			phone:      &fakePhone{awaitErr: errors.New("decode error")},
			speech:     &fakeSpeech{},
			wantState:  StateAwaitingRecording,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, states := newTestProcessor(tt.phone, tt.speech)
			_, err := p.Run(context.Background())

			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StageError", err)
			}
			if se.State != tt.wantState {
				t.Errorf("state = %s, want %s", se.State, tt.wantState)
			}
			if se.HTTPStatus() != tt.wantStatus {
				t.Errorf("status = %d, want %d", se.HTTPStatus(), tt.wantStatus)
			}
			got := *states
			if len(got) == 0 || got[len(got)-1] != StateFailed {
				t.Errorf("states = %v, want to end in failed", got)
			}
		})
	}
}

func TestRunRejectsConcurrentCall(t *testing.T) {
	phone := &fakePhone{started: make(chan struct{}), block: make(chan struct{})}
	p, _ := newTestProcessor(phone, &fakeSpeech{text: "hello"})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()

	select {
	case <-phone.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}

	if _, err := p.Run(context.Background()); !errors.Is(err, ErrCallInProgress) {
		t.Errorf("second run err = %v, want ErrCallInProgress", err)
	}

	close(phone.block)
	if err := <-done; err != nil {
		t.Errorf("first run: %v", err)
	}
}

func TestValidTransition(t *testing.T) {
	if !validTransition(StatePlacing, StateAwaitingRecording) {
		t.Error("placing -> awaiting_recording rejected")
	}
	if !validTransition(StateExtracting, StateFailed) {
		t.Error("extracting -> failed rejected")
	}
	if validTransition(StatePlacing, StateTranscribing) {
		t.Error("placing -> transcribing accepted")
	}
	if validTransition(StateDone, StateFailed) || validTransition(StateFailed, StatePlacing) {
		t.Error("transition out of a terminal state accepted")
	}
}
