package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"voice-appointments-go/internal/api"
	"voice-appointments-go/internal/config"
	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/poller"
	"voice-appointments-go/internal/processor"
	"voice-appointments-go/internal/telephony"
	"voice-appointments-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Environment)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	phone := telephony.NewClient(telephony.Config{
		BaseURL:    cfg.Twilio.BaseURL,
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.From,
		To:         cfg.Twilio.To,
		Timeout:    cfg.Twilio.HTTPTimeout.Duration,
	}, log)
	speech := transcription.NewClient(transcription.Config{
		BaseURL: cfg.AssemblyAI.BaseURL,
		APIKey:  cfg.AssemblyAI.APIKey,
		Timeout: cfg.AssemblyAI.HTTPTimeout.Duration,
	}, log)

	proc := processor.New(phone, speech, processor.Options{
		Call: telephony.CallRequest{
			Announcement:     cfg.Call.Announcement,
			Voice:            cfg.Call.Voice,
			MaxRecordSeconds: cfg.Call.MaxRecordSeconds,
		},
		RecordingPoll: poller.Config{
			Interval: cfg.Polling.RecordingInterval.Duration,
			Timeout:  cfg.Polling.RecordingTimeout.Duration,
		},
		TranscriptPoll: poller.Config{
			Interval: cfg.Polling.TranscriptInterval.Duration,
			Timeout:  cfg.Polling.TranscriptTimeout.Duration,
		},
	}, log)
	proc.Observe(func(t processor.Transition) {
		log.WithFields(logrus.Fields{"from": t.From, "to": t.To}).Debug("state change")
	})

	log.WithFields(logrus.Fields{
		"service":            "voice-appointments-go",
		"to":                 telephony.Mask(cfg.Twilio.To),
		"recording_timeout":  cfg.Polling.RecordingTimeout.Duration.String(),
		"transcript_timeout": cfg.Polling.TranscriptTimeout.Duration.String(),
	}).Info("starting service")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	// a /make_call response waits for the call, the recording and the transcript,
	// so the write timeout is much longer than the read timeout
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(proc, log).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
