package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"voice-appointments-go/internal/logger"
	"voice-appointments-go/internal/types"
)

// LoadTranscripts reads the first sheet of an .xlsx workbook. The id and
// transcript columns are found by header name, falling back to the first two
// columns. Rows with an empty transcript are skipped; rows without an id get
// their row number.
func LoadTranscripts(path string, log *logger.Logger) ([]types.TranscriptRecord, error) {
	log = log.Component("dataset.loader").With(logrus.Fields{"path": path})

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	idIdx, textIdx := detectColumns(rows[0])
	log.WithFields(logrus.Fields{
		"sheet":          sheets[0],
		"id_idx":         idIdx,
		"transcript_idx": textIdx,
	}).Debug("detected column indices")

	var out []types.TranscriptRecord
	skipped := 0
	for i, r := range rows {
		if i == 0 {
			continue
		}
		rec := types.TranscriptRecord{}
		if idIdx >= 0 && idIdx < len(r) {
			rec.ID = strings.TrimSpace(r[idIdx])
		}
		if textIdx < len(r) {
			rec.Transcript = strings.TrimSpace(r[textIdx])
		}
		if rec.Transcript == "" {
			skipped++
			continue
		}
		if rec.ID == "" {
			rec.ID = strconv.Itoa(i + 1)
		}
		out = append(out, rec)
	}

	log.WithFields(logrus.Fields{"records": len(out), "skipped": skipped}).Info("transcripts loaded")
	return out, nil
}

// detectColumns returns the id and transcript column indices. The id index
// is -1 when the sheet has a single column.
func detectColumns(header []string) (idIdx, textIdx int) {
	idIdx, textIdx = -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || strings.Contains(l, "text") || strings.Contains(l, "utterance"):
			if textIdx == -1 {
				textIdx = i
			}
		case l == "id" || strings.Contains(l, "call id") || strings.Contains(l, "callid") || strings.Contains(l, "call_id") || strings.HasSuffix(l, " id"):
			if idIdx == -1 {
				idIdx = i
			}
		}
	}

	// fallback heuristics
	switch {
	case textIdx == -1 && len(header) < 2:
		return -1, 0
	case textIdx == -1 && idIdx == -1:
		return 0, 1
	case textIdx == -1:
		textIdx = 0
		if idIdx == 0 {
			textIdx = 1
		}
	case idIdx == -1 && textIdx != 0:
		idIdx = 0
	}
	return idIdx, textIdx
}
