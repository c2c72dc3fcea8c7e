package extractor

import (
	"regexp"
	"strings"

	"voice-appointments-go/internal/types"
)

// introPattern matches the first self-introduction and the run of letters
// and spaces after it.
var introPattern = regexp.MustCompile(`(?i)\b(?:my name is|i am|i['’]m|this is)\s+([a-z][a-z ]*)`)

// nameStopWords end a captured run: spoken introductions tend to flow
// straight into the request ("this is John calling for ...").
var nameStopWords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "at": {}, "book": {}, "but": {},
	"calling": {}, "for": {}, "from": {}, "here": {}, "hoping": {}, "i": {},
	"in": {}, "just": {}, "like": {}, "looking": {}, "need": {}, "on": {},
	"phoning": {}, "please": {}, "reaching": {}, "ringing": {}, "so": {},
	"speaking": {}, "the": {}, "to": {}, "trying": {}, "want": {}, "wanted": {},
	"with": {}, "would": {},
}

// ExtractName returns the name following the first introduction marker, or
// types.Unknown. A marker followed only by filler ("I'm calling to ...") is
// skipped and the search goes on from there.
func ExtractName(transcript string) string {
	for pos := 0; pos < len(transcript); {
		loc := introPattern.FindStringSubmatchIndex(transcript[pos:])
		if loc == nil {
			break
		}
		if name := nameFrom(transcript[pos+loc[2] : pos+loc[3]]); name != "" {
			return name
		}
		// resume at the captured run, which may hold the next marker
		pos += loc[2]
	}
	return types.Unknown
}

// nameFrom keeps the words of a run up to the first stop word.
func nameFrom(run string) string {
	var words []string
	for _, w := range strings.Fields(run) {
		if _, stop := nameStopWords[strings.ToLower(w)]; stop {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
