package usecase

import (
	"strings"

	"github.com/tidwall/gjson"
)

type DateFormat string

const (
	// DateFormatISO8601 accepts RFC3339 and the common ISO-8601 variants,
	// with or without an offset. Values without an offset are taken as local.
	DateFormatISO8601 DateFormat = "iso8601"
	// DateFormatLayout parses with Profile.DateLayout only.
	DateFormatLayout DateFormat = "layout"
)

// FieldPath lists gjson paths tried in order; the first non-empty value wins.
type FieldPath []string

func Paths(paths ...string) FieldPath {
	return FieldPath(paths)
}

func (p FieldPath) lookup(doc gjson.Result) string {
	for _, path := range p {
		if strings.TrimSpace(path) == "" {
			continue
		}
		value := doc.Get(path)
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if text := cleanText(value.String()); text != "" {
			return text
		}
	}
	return ""
}

// SportRule maps a label containing Contains (case-insensitive) to Label.
type SportRule struct {
	Contains string
	Label    string
}

// Window bounds accepted fixture dates around today in the local zone, inclusive.
type Window struct {
	DaysBehind int
	DaysAhead  int
}

// Profile describes how one source's documents map onto a fixture.Record.
type Profile struct {
	Source string

	IDPath   FieldPath
	IDPrefix string

	DatePath   FieldPath
	DateFormat DateFormat
	DateLayout string
	// TimePath, when set, supplies the kickoff text verbatim (e.g. "19:30" or
	// "TBC") instead of deriving it from the parsed instant.
	TimePath FieldPath

	HomePath      FieldPath
	AwayPath      FieldPath
	VenuePath     FieldPath
	VenuePrefixes []string
	DefaultVenue  string

	BroadcastPath    FieldPath
	DefaultBroadcast string

	// GroupPath feeds Rules. Without rules the payload label is the sport.
	GroupPath    FieldPath
	Rules        []SportRule
	DefaultSport string

	Window *Window
}

// ClassifySport returns the label of the first rule whose Contains is a
// case-insensitive substring of group, or fallback.
func ClassifySport(group string, rules []SportRule, fallback string) string {
	lowered := strings.ToLower(group)
	for _, rule := range rules {
		needle := strings.ToLower(strings.TrimSpace(rule.Contains))
		if needle == "" {
			continue
		}
		if strings.Contains(lowered, needle) {
			return rule.Label
		}
	}
	return fallback
}
