package types

import "time"

// Unknown is reported for any field extraction could not find.
const Unknown = "Unknown"

// CallSession is one outbound call in flight.
type CallSession struct {
	ID        string    `json:"id"`
	CallSID   string    `json:"call_sid"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Recording struct {
	SID      string `json:"sid"`
	CallSID  string `json:"call_sid"`
	Status   string `json:"status,omitempty"`
	MediaURL string `json:"media_url"`
	Audio    []byte `json:"-"`
}

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// Terminal reports whether no further status change is possible.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError
}

type TranscriptionJob struct {
	ID        string    `json:"id"`
	UploadURL string    `json:"upload_url,omitempty"`
	Status    JobStatus `json:"status"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type ExtractionResult struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Transcript string `json:"transcript"`
}

// CallResult is what the trigger endpoint returns on success.
type CallResult struct {
	Message string `json:"message"`
	ExtractionResult
	CallSID    string `json:"call_sid,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type ErrorResult struct {
	Error string `json:"error"`
}

// TranscriptRecord is one row of a batch transcript workbook.
type TranscriptRecord struct {
	ID         string `json:"id"`
	Transcript string `json:"transcript"`
}

type ExtractionRow struct {
	ID string `json:"id"`
	ExtractionResult
}
