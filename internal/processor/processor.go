package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"voice-appointments-go/internal/extractor"
	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/poller"
	"voice-appointments-go/internal/telephony"
	"voice-appointments-go/internal/types"
)

const CompletedMessage = "Call completed and transcribed!"

type Telephony interface {
	PlaceCall(ctx context.Context, call telephony.CallRequest) (*types.CallSession, error)
	AwaitRecording(ctx context.Context, callSID string, poll poller.Config) (*types.Recording, error)
	FetchAudio(ctx context.Context, rec *types.Recording) ([]byte, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, poll poller.Config) (*types.TranscriptionJob, error)
}

type Options struct {
	Call           telephony.CallRequest
	RecordingPoll  poller.Config
	TranscriptPoll poller.Config
}

// Transition is reported to the observer on every state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Processor runs one call at a time from placement to extracted fields.
type Processor struct {
	phone   Telephony
	speech  Transcriber
	opts    Options
	log     *logger.Logger
	observe func(Transition)
	now     func() time.Time
	extract func(transcript string, now time.Time) types.ExtractionResult

	mu sync.Mutex
}

func New(phone Telephony, speech Transcriber, opts Options, log *logger.Logger) *Processor {
	return &Processor{
		phone:   phone,
		speech:  speech,
		opts:    opts,
		log:     log.Component("processor"),
		now:     time.Now,
		extract: extractor.Extract,
	}
}

// Observe registers a callback for state transitions.
func (p *Processor) Observe(fn func(Transition)) {
	p.observe = fn
}

// run is the state of a single call.
type run struct {
	p     *Processor
	state State
	log   *logger.Logger
}

func (r *run) move(to State) {
	if !validTransition(r.state, to) {
		panic(fmt.Sprintf("processor: invalid transition %s -> %s", r.state, to))
	}
	t := Transition{From: r.state, To: to, At: r.p.now()}
	r.log.WithField("from", t.From).WithField("to", t.To).Debug("state transition")
	r.state = to
	if r.p.observe != nil {
		r.p.observe(t)
	}
}

func (r *run) fail(err error) error {
	se := fail(r.state, err)
	r.move(StateFailed)
	r.log.WithError(err).WithField("stage", se.State).WithField("http_status", se.HTTPStatus()).Warn("call run failed")
	return se
}

// Run places the call and drives it to a result. Only one run may be active;
// a concurrent call gets ErrCallInProgress. Failures are *StageError.
func (p *Processor) Run(ctx context.Context) (*types.CallResult, error) {
	if !p.mu.TryLock() {
		return nil, ErrCallInProgress
	}
	defer p.mu.Unlock()

	start := p.now()
	r := &run{p: p, state: StatePlacing, log: p.log}
	r.log.Info("placing call")

	session, err := p.phone.PlaceCall(ctx, p.opts.Call)
	if err != nil {
		return nil, r.fail(err)
	}
	r.log = r.log.With(logrus.Fields{"call_sid": session.CallSID, "session_id": session.ID})
	r.move(StateAwaitingRecording)

	rec, err := p.phone.AwaitRecording(ctx, session.CallSID, p.opts.RecordingPoll)
	if err != nil {
		return nil, r.fail(err)
	}
	r.move(StateDownloadingAudio)

	audio, err := p.phone.FetchAudio(ctx, rec)
	if err != nil {
		return nil, r.fail(err)
	}
	r.move(StateTranscribing)

	job, err := p.speech.Transcribe(ctx, audio, p.opts.TranscriptPoll)
	// the audio is not needed past this point
	rec.Audio = nil
	if err != nil {
		return nil, r.fail(err)
	}
	r.move(StateExtracting)

	extraction := p.extract(job.Text, p.now())
	r.move(StateDone)

	res := &types.CallResult{
		Message:          CompletedMessage,
		ExtractionResult: extraction,
		CallSID:          session.CallSID,
		DurationMs:       p.now().Sub(start).Milliseconds(),
	}
	r.log.WithField("name", res.Name).WithField("date", res.Date).WithField("time", res.Time).
		WithField("duration_ms", res.DurationMs).Info("call processed")
	return res, nil
}
