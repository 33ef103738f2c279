package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"
)

type RejectReason string

const (
	RejectMalformedPayload RejectReason = "malformed_payload"
	RejectMissingIdentity  RejectReason = "missing_identity"
	RejectMissingDate      RejectReason = "missing_date"
	RejectUnparseableDate  RejectReason = "unparseable_date"
	RejectOutsideWindow    RejectReason = "outside_window"
	RejectInvalidRecord    RejectReason = "invalid_record"
)

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var clockPattern = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)

// Normalizer turns raw source documents into canonical records. It holds no
// mutable state; the clock only matters for profiles with a Window.
type Normalizer struct {
	location *time.Location
	now      func() time.Time
	validate *validator.Validate
}

func NewNormalizer(location *time.Location, now func() time.Time) *Normalizer {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{
		location: location,
		now:      now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type NormalizeStats struct {
	Total    int
	Accepted int
	Rejected map[RejectReason]int
}

func (s NormalizeStats) RejectedTotal() int {
	total := 0
	for _, count := range s.Rejected {
		total += count
	}
	return total
}

// NormalizeAll keeps input order and counts every rejection by reason.
func (n *Normalizer) NormalizeAll(payloads []fixture.RawPayload, profile Profile) ([]fixture.Record, NormalizeStats) {
	stats := NormalizeStats{Total: len(payloads), Rejected: make(map[RejectReason]int)}
	records := make([]fixture.Record, 0, len(payloads))
	for _, payload := range payloads {
		record, reason, ok := n.Normalize(payload, profile)
		if !ok {
			stats.Rejected[reason]++
			continue
		}
		records = append(records, record)
	}
	stats.Accepted = len(records)
	return records, stats
}

func (n *Normalizer) Normalize(payload fixture.RawPayload, profile Profile) (fixture.Record, RejectReason, bool) {
	if !gjson.ValidBytes(payload.Doc) {
		return fixture.Record{}, RejectMalformedPayload, false
	}
	doc := gjson.ParseBytes(payload.Doc)
	if !doc.IsObject() {
		return fixture.Record{}, RejectMalformedPayload, false
	}

	identity := profile.IDPath.lookup(doc)
	if identity == "" {
		return fixture.Record{}, RejectMissingIdentity, false
	}
	if profile.IDPrefix != "" && !strings.HasPrefix(identity, profile.IDPrefix) {
		identity = profile.IDPrefix + identity
	}

	rawDate := profile.DatePath.lookup(doc)
	if rawDate == "" {
		return fixture.Record{}, RejectMissingDate, false
	}
	instant, hasClock, err := n.parseInstant(rawDate, profile)
	if err != nil {
		return fixture.Record{}, RejectUnparseableDate, false
	}
	local := instant.In(n.location)
	if profile.Window != nil && !n.withinWindow(local, *profile.Window) {
		return fixture.Record{}, RejectOutsideWindow, false
	}

	kickoff := ""
	switch {
	case len(profile.TimePath) > 0:
		kickoff = normalizeClock(profile.TimePath.lookup(doc))
	case hasClock:
		kickoff = local.Format(fixture.TimeLayout)
	}

	sport := cleanText(payload.Label)
	if len(profile.Rules) > 0 {
		sport = ClassifySport(profile.GroupPath.lookup(doc), profile.Rules, profile.DefaultSport)
	}
	if sport == "" {
		sport = profile.DefaultSport
	}

	venue := stripPrefixes(profile.VenuePath.lookup(doc), profile.VenuePrefixes)
	if venue == "" {
		venue = profile.DefaultVenue
	}
	broadcast := profile.BroadcastPath.lookup(doc)
	if broadcast == "" {
		broadcast = profile.DefaultBroadcast
	}

	record := fixture.Record{
		Identity:  identity,
		Date:      local.Format(fixture.DateLayout),
		Time:      kickoff,
		Sport:     sport,
		TeamHome:  profile.HomePath.lookup(doc),
		TeamAway:  profile.AwayPath.lookup(doc),
		Venue:     venue,
		Broadcast: broadcast,
	}
	if err := n.validate.Struct(record); err != nil {
		return fixture.Record{}, RejectInvalidRecord, false
	}
	return record, "", true
}

// parseInstant reports whether the value carried a time of day.
func (n *Normalizer) parseInstant(raw string, profile Profile) (time.Time, bool, error) {
	if profile.DateFormat == DateFormatLayout {
		if profile.DateLayout == "" {
			return time.Time{}, false, fmt.Errorf("%w: date layout is required", ErrInvalidInput)
		}
		hasClock := strings.Contains(profile.DateLayout, "15")
		parsed, err := time.ParseInLocation(profile.DateLayout, raw, n.location)
		if err == nil {
			return parsed, hasClock, nil
		}
		// A numeric zone accepts +0100, +01:00 and a bare Z.
		for _, zone := range [...]string{"Z0700", "-0700"} {
			if !strings.Contains(profile.DateLayout, zone) {
				continue
			}
			colonLayout := strings.Replace(profile.DateLayout, zone, "Z07:00", 1)
			if parsed, colonErr := time.ParseInLocation(colonLayout, raw, n.location); colonErr == nil {
				return parsed, hasClock, nil
			}
			break
		}
		return time.Time{}, false, err
	}

	for _, layout := range iso8601Layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true, nil
		}
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, n.location); err == nil {
			return parsed, true, nil
		}
	}
	parsed, err := time.ParseInLocation(fixture.DateLayout, raw, n.location)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unrecognized date %q", raw)
	}
	return parsed, false, nil
}

func (n *Normalizer) withinWindow(local time.Time, window Window) bool {
	today := civilDate(n.now().In(n.location))
	day := civilDate(local)
	first := today.AddDate(0, 0, -window.DaysBehind)
	last := today.AddDate(0, 0, window.DaysAhead)
	return !day.Before(first) && !day.After(last)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// cleanText applies NFC and collapses runs of whitespace.
func cleanText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
}

func stripPrefixes(value string, prefixes []string) string {
	for _, prefix := range prefixes {
		if prefix == "" || len(value) < len(prefix) {
			continue
		}
		if strings.EqualFold(value[:len(prefix)], prefix) {
			return strings.TrimSpace(value[len(prefix):])
		}
	}
	return value
}

// normalizeClock pads "9:30" and "19.30" style times to HH:MM. Any other
// text passes through, with tbc folded to the TBC sentinel.
func normalizeClock(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.EqualFold(raw, fixture.TimeTBC) {
		return fixture.TimeTBC
	}
	if m := clockPattern.FindStringSubmatch(raw); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return fmt.Sprintf("%02d:%02d", hour, minute)
		}
	}
	return raw
}
