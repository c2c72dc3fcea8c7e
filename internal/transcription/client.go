package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/restclient"
	"voice-appointments-go/internal/types"
)

const DefaultBaseURL = "https://api.assemblyai.com"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an AssemblyAI v2 client.
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
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Component("transcription"),
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("authorization", c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Upload sends raw audio and returns the service's reference to it.
func (c *Client) Upload(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &UploadError{Err: errors.New("no audio")}
	}
	build := func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, "/v2/upload", audio, "application/octet-stream")
	}

	var resp uploadResponse
	if err := restclient.DoJSON(ctx, c.httpClient, build, restclient.NoRetry(), &resp); err != nil {
		var se *restclient.StatusError
		if errors.As(err, &se) {
			return "", &UploadError{StatusCode: se.StatusCode, Body: se.Body}
		}
		return "", &UploadError{Err: err}
	}
	if resp.UploadURL == "" {
		return "", &UploadError{Err: errors.New("service returned no upload_url")}
	}
	return resp.UploadURL, nil
}

// Submit requests a transcription job for an uploaded file.
func (c *Client) Submit(ctx context.Context, uploadURL string) (*types.TranscriptionJob, error) {
	payload, err := json.Marshal(transcriptRequest{AudioURL: uploadURL})
	if err != nil {
		return nil, &SubmitError{Err: err}
	}
	build := func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, "/v2/transcript", payload, "application/json")
	}

	var resp transcriptResponse
	if err := restclient.DoJSON(ctx, c.httpClient, build, restclient.NoRetry(), &resp); err != nil {
		var se *restclient.StatusError
		if errors.As(err, &se) {
			return nil, &SubmitError{StatusCode: se.StatusCode, Body: se.Body}
		}
		return nil, &SubmitError{Err: err}
	}
	if resp.ID == "" {
		return nil, &SubmitError{Err: errors.New("service returned no job id")}
	}
	return &types.TranscriptionJob{
		ID:        resp.ID,
		UploadURL: uploadURL,
		Status:    normalizeStatus(resp.Status),
	}, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*types.TranscriptionJob, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, "/v2/transcript/"+jobID, nil, "")
	}

	var resp transcriptResponse
	if err := restclient.DoJSON(ctx, c.httpClient, build, restclient.RetryPolicy(c.cfg.Timeout), &resp); err != nil {
		return nil, fmt.Errorf("transcript status %s: %w", jobID, err)
	}
	return &types.TranscriptionJob{
		ID:     jobID,
		Status: normalizeStatus(resp.Status),
		Text:   resp.Text,
		Error:  resp.Error,
	}, nil
}

func normalizeStatus(s string) types.JobStatus {
	switch types.JobStatus(strings.ToLower(s)) {
	case types.JobCompleted:
		return types.JobCompleted
	case types.JobError:
		return types.JobError
	case types.JobProcessing:
		return types.JobProcessing
	default:
		return types.JobQueued
	}
}
