package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"voice-appointments-go/internal/aggregator"
	"voice-appointments-go/internal/dataset"
	"voice-appointments-go/internal/extractor"
	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/types"
)

func main() {
	_ = godotenv.Load()

	in := flag.String("in", "", "workbook with transcripts (.xlsx)")
	out := flag.String("out", "results.xlsx", "workbook to write results to")
	ref := flag.String("ref", "", "reference date YYYY-MM-DD for resolving dates (default today)")
	flag.Parse()

	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT")).Component("extract")
	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: extract -in transcripts.xlsx [-out results.xlsx] [-ref YYYY-MM-DD]")
		os.Exit(2)
	}

	now := time.Now()
	if *ref != "" {
		d, err := time.ParseInLocation(time.DateOnly, *ref, time.Local)
		if err != nil {
			log.WithError(err).Fatal("invalid -ref date")
		}
		now = d
	}

	records, err := dataset.LoadTranscripts(*in, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load transcripts")
	}

	rows := make([]types.ExtractionRow, 0, len(records))
	results := make([]types.ExtractionResult, 0, len(records))
	for _, rec := range records {
		res := extractor.Extract(rec.Transcript, now)
		rows = append(rows, types.ExtractionRow{ID: rec.ID, ExtractionResult: res})
		results = append(results, res)
	}

	summary := aggregator.Aggregate(results)
	if err := dataset.WriteResults(*out, rows, summary); err != nil {
		log.WithError(err).Fatal("failed to write results")
	}

	log.WithFields(logrus.Fields{
		"out":         *out,
		"total":       summary.Total,
		"names_found": summary.NamesFound,
		"dates_found": summary.DatesFound,
		"complete":    summary.Complete,
	}).Info("extraction finished")
}
