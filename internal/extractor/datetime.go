package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"voice-appointments-go/internal/types"
)

const (
	monthExpr = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`
	dayExpr   = `\d{1,2}(?:st|nd|rd|th)?`
	yearExpr  = `\b(?:19|20)\d{2}\b`
	clockExpr = `\d{1,2}(?::\d{2})?(?:\s*[ap]\.?\s?m\b\.?)?`
)

// dateTimePattern captures the date phrase (with an optional spoken year) in
// group 1 and the optional clock phrase in group 2.
var dateTimePattern = regexp.MustCompile(`(?i)\b(?:(?:on|for)\s+(?:the\s+)?)?((?:` +
	dayExpr + `\s+of\s+` + monthExpr + `|` +
	dayExpr + `\s+` + monthExpr + `|` +
	monthExpr + `\s+(?:the\s+)?` + dayExpr + `\b)` +
	`(?:,?\s+` + yearExpr + `)?)` +
	`(?:,?\s+at\s+(` + clockExpr + `))?`)

var (
	dayPattern   = regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\b`)
	yearPattern  = regexp.MustCompile(yearExpr)
	monthPattern = regexp.MustCompile(`(?i)` + monthExpr)
	clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(?:([ap])\.?\s?m\.?)?$`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractDateTime finds the first date phrase in the transcript and resolves
// it against now. Both values are types.Unknown when nothing resolves.
func ExtractDateTime(transcript string, now time.Time) (string, string) {
	m := dateTimePattern.FindStringSubmatch(transcript)
	if m == nil {
		return types.Unknown, types.Unknown
	}

	t, err := Resolve(m[1], m[2], now)
	if err != nil {
		return types.Unknown, types.Unknown
	}
	return t.Format(time.DateOnly), t.Format(time.TimeOnly)
}

// spokenDate is a date phrase reduced to its parts. Year is 0 when the
// caller did not say one.
type spokenDate struct {
	year  int
	month time.Month
	day   int
}

func parseSpokenDate(phrase string) (spokenDate, error) {
	monthName := monthPattern.FindString(phrase)
	if monthName == "" {
		return spokenDate{}, fmt.Errorf("no month in %q", phrase)
	}
	d := spokenDate{month: months[strings.ToLower(monthName[:3])]}

	// the year is matched first so its digits are not taken for the day
	rest := phrase
	if y := yearPattern.FindString(phrase); y != "" {
		d.year, _ = strconv.Atoi(y)
		rest = strings.Replace(phrase, y, "", 1)
	}
	day := strings.TrimRight(strings.ToLower(dayPattern.FindString(rest)), "stndrh")
	n, err := strconv.Atoi(day)
	if err != nil {
		return spokenDate{}, fmt.Errorf("no day in %q", phrase)
	}
	d.day = n
	return d, nil
}

// canonical renders the date the way the parser reads it unambiguously,
// e.g. "15 March 2025".
func (d spokenDate) canonical() string {
	if d.year == 0 {
		return fmt.Sprintf("%d %s", d.day, d.month)
	}
	return fmt.Sprintf("%d %s %d", d.day, d.month, d.year)
}

// Resolve turns a spoken date phrase and optional clock phrase into a point
// in time in now's location. A date without a year is the next occurrence
// of that day counting today; a spoken year is kept as said.
func Resolve(datePhrase, clockPhrase string, now time.Time) (time.Time, error) {
	d, err := parseSpokenDate(datePhrase)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute := 0, 0
	clock := ""
	if clockPhrase = strings.TrimSpace(clockPhrase); clockPhrase != "" {
		hour, minute, err = parseClock(clockPhrase)
		if err != nil {
			return time.Time{}, err
		}
		clock = fmt.Sprintf(" %02d:%02d", hour, minute)
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch {
	case d.year != 0:
		if !validDay(d.year, d.month, d.day) {
			return time.Time{}, fmt.Errorf("%s %d does not occur in %d", d.month, d.day, d.year)
		}
	case !validDay(today.Year(), d.month, d.day) && !validDay(today.Year()+1, d.month, d.day):
		return time.Time{}, fmt.Errorf("%s %d is not a calendar day", d.month, d.day)
	case d.month == time.February && d.day == 29:
		// the parser cannot roll a leap day forward, so the year is chosen here
		d.year = today.Year()
		if !validDay(d.year, d.month, d.day) || time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc).Before(today) {
			d.year++
		}
		if !validDay(d.year, d.month, d.day) {
			return time.Time{}, fmt.Errorf("%s %d does not occur in %d", d.month, d.day, d.year)
		}
	}

	// the reference is midnight so a day that is today still counts as future
	parsed, err := dateparser.Parse(&dateparser.Configuration{
		CurrentTime:         today,
		DefaultTimezone:     loc,
		PreferredDateSource: dateparser.Future,
		Languages:           []string{"en"},
	}, d.canonical()+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve %q: %w", datePhrase, err)
	}
	t := parsed.Time
	if t.IsZero() || t.Month() != d.month || t.Day() != d.day {
		return time.Time{}, fmt.Errorf("resolve %q: got %v", datePhrase, t)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, loc), nil
}

func validDay(year int, month time.Month, day int) bool {
	if day < 1 {
		return false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Month() == month
}

func parseClock(s string) (int, int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("unrecognised time %q", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("minute out of range in %q", s)
	}

	switch strings.ToLower(m[3]) {
	case "a":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour out of range in %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("hour out of range in %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("hour out of range in %q", s)
		}
	}
	return hour, minute, nil
}

// Extract runs both extractors over one transcript.
func Extract(transcript string, now time.Time) types.ExtractionResult {
	date, clock := ExtractDateTime(transcript, now)
	return types.ExtractionResult{
		Name:       ExtractName(transcript),
		Date:       date,
		Time:       clock,
		Transcript: transcript,
	}
}
