package telephony

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/poller"
	"voice-appointments-go/internal/restclient"
	"voice-appointments-go/internal/types"
)

const DefaultBaseURL = "https://api.twilio.com"

type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	To         string
	Timeout    time.Duration
}

// CallRequest is what the callee hears and how long they may answer.
type CallRequest struct {
	Announcement     string
	Voice            string
	MaxRecordSeconds int
}

// Client talks to the Twilio 2010-04-01 REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Component("telephony"),
	}
}

type callResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type recordingEntry struct {
	SID     string `json:"sid"`
	CallSID string `json:"call_sid"`
	Status  string `json:"status"`
}

type recordingsResponse struct {
	Recordings []recordingEntry `json:"recordings"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Say     struct {
		Voice string `xml:"voice,attr,omitempty"`
		Text  string `xml:",chardata"`
	} `xml:"Say"`
	Record struct {
		MaxLength int `xml:"maxLength,attr,omitempty"`
	} `xml:"Record"`
}

// TwiML renders the call instructions: speak the announcement, then record.
func (r CallRequest) TwiML() (string, error) {
	var doc twiml
	doc.Say.Voice = r.Voice
	doc.Say.Text = r.Announcement
	doc.Record.MaxLength = r.MaxRecordSeconds
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Client) accountURL(path string) string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/%s", c.cfg.BaseURL, url.PathEscape(c.cfg.AccountSID), path)
}

// MediaURL is the download reference for a recording.
func (c *Client) MediaURL(recordingSID string) string {
	return c.accountURL("Recordings/" + url.PathEscape(recordingSID) + ".mp3")
}

func (c *Client) authorize(req *http.Request) {
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
}

// PlaceCall starts the outbound call. It is never retried: a repeated POST
// would ring the callee twice.
func (c *Client) PlaceCall(ctx context.Context, call CallRequest) (*types.CallSession, error) {
	doc, err := call.TwiML()
	if err != nil {
		return nil, &CallPlacementError{Message: err.Error()}
	}
	form := url.Values{}
	form.Set("To", c.cfg.To)
	form.Set("From", c.cfg.From)
	form.Set("Twiml", doc)
	form.Set("Record", "true")

	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountURL("Calls.json"), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		c.authorize(req)
		return req, nil
	}

	var resp callResponse
	if err := restclient.DoJSON(ctx, c.httpClient, build, restclient.NoRetry(), &resp); err != nil {
		return nil, placementError(err)
	}
	if resp.SID == "" {
		return nil, &CallPlacementError{Message: "provider returned no call sid"}
	}

	session := &types.CallSession{
		ID:        uuid.New().String(),
		CallSID:   resp.SID,
		Status:    resp.Status,
		CreatedAt: time.Now(),
	}
	c.log.WithField("call_sid", session.CallSID).WithField("session_id", session.ID).Info("call placed")
	return session, nil
}

func placementError(err error) error {
	var se *restclient.StatusError
	if errors.As(err, &se) {
		msg := se.Body
		var ae apiError
		if json.Unmarshal([]byte(se.Body), &ae) == nil && ae.Message != "" {
			msg = ae.Message
		}
		return &CallPlacementError{StatusCode: se.StatusCode, Message: msg}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &CallPlacementError{Message: err.Error()}
}

// ListRecordings returns the recordings the provider has for a call so far.
func (c *Client) ListRecordings(ctx context.Context, callSID string) ([]types.Recording, error) {
	q := url.Values{}
	q.Set("CallSid", callSID)
	endpoint := c.accountURL("Recordings.json") + "?" + q.Encode()

	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return req, nil
	}

	var resp recordingsResponse
	if err := restclient.DoJSON(ctx, c.httpClient, build, restclient.RetryPolicy(c.cfg.Timeout), &resp); err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	out := make([]types.Recording, 0, len(resp.Recordings))
	for _, r := range resp.Recordings {
		out = append(out, types.Recording{
			SID:      r.SID,
			CallSID:  callSID,
			Status:   r.Status,
			MediaURL: c.MediaURL(r.SID),
		})
	}
	return out, nil
}

// ready reports whether a listed recording can be downloaded.
func ready(r types.Recording) bool {
	switch r.Status {
	case "", "completed":
		return r.SID != ""
	default:
		return false
	}
}

// AwaitRecording polls until the call has a finished recording. The first
// check happens straight away.
func (c *Client) AwaitRecording(ctx context.Context, callSID string, poll poller.Config) (*types.Recording, error) {
	log := c.log.WithField("call_sid", callSID)
	var found *types.Recording

	err := poller.Until(ctx, poll, func(ctx context.Context) (bool, error) {
		recs, err := c.ListRecordings(ctx, callSID)
		if err != nil {
			return false, err
		}
		for i := range recs {
			if ready(recs[i]) {
				found = &recs[i]
				return true, nil
			}
		}
		return false, nil
	}, func(attempt int, wait time.Duration) {
		log.WithField("attempt", attempt).WithField("next_poll", wait).Debug("recording not ready")
	})
	if errors.Is(err, poller.ErrTimeout) {
		return nil, &RecordingTimeoutError{CallSID: callSID, Waited: poll.Timeout}
	}
	if err != nil {
		return nil, err
	}

	log.WithField("recording_sid", found.SID).Info("recording available")
	return found, nil
}

// FetchAudio downloads the recording bytes with the account credentials.
func (c *Client) FetchAudio(ctx context.Context, rec *types.Recording) ([]byte, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.MediaURL, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return req, nil
	}

	body, err := restclient.Do(ctx, c.httpClient, build, restclient.RetryPolicy(c.cfg.Timeout))
	if err != nil {
		var se *restclient.StatusError
		if errors.As(err, &se) {
			return nil, &RetrievalError{StatusCode: se.StatusCode, Body: se.Body}
		}
		return nil, &RetrievalError{Err: err}
	}
	if len(body) == 0 {
		return nil, &RetrievalError{StatusCode: http.StatusOK, Body: "empty recording"}
	}

	rec.Audio = body
	c.log.WithField("recording_sid", rec.SID).WithField("bytes", len(body)).Info("recording downloaded")
	return body, nil
}

// Mask keeps the last four digits of a phone number for logs.
func Mask(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
