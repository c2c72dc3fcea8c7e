package transcription

import (
	"context"
	"errors"
	"time"

	"voice-appointments-go/internal/poller"
	"voice-appointments-go/internal/types"
)

// Transcribe uploads the audio, submits a job and polls it to a terminal
// state. A completed job is returned with its text; a failed job yields a
// *TranscriptionError carrying the service message.
func (c *Client) Transcribe(ctx context.Context, audio []byte, poll poller.Config) (*types.TranscriptionJob, error) {
	uploadURL, err := c.Upload(ctx, audio)
	if err != nil {
		return nil, err
	}
	c.log.WithField("bytes", len(audio)).Info("audio uploaded")

	job, err := c.Submit(ctx, uploadURL)
	if err != nil {
		return nil, err
	}
	log := c.log.WithField("job_id", job.ID)
	log.Info("transcription submitted")

	err = poller.Until(ctx, poll, func(ctx context.Context) (bool, error) {
		latest, err := c.Status(ctx, job.ID)
		if err != nil {
			return false, err
		}
		job.Status = latest.Status
		if !latest.Status.Terminal() {
			return false, nil
		}
		if latest.Status == types.JobError {
			job.Error = latest.Error
			return false, &TranscriptionError{JobID: job.ID, Message: latest.Error}
		}
		job.Text = latest.Text
		return true, nil
	}, func(attempt int, wait time.Duration) {
		log.WithField("attempt", attempt).WithField("status", job.Status).Debug("polling transcription")
	})
	if errors.Is(err, poller.ErrTimeout) {
		return nil, &TimeoutError{JobID: job.ID, Waited: poll.Timeout}
	}
	if err != nil {
		return nil, err
	}

	log.WithField("chars", len(job.Text)).Info("transcription completed")
	return job, nil
}
