package fixture

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// TimeTBC marks a fixture whose kickoff time is not announced yet.
	TimeTBC = "TBC"
	// BroadcastTBC is written on create when a source carries no broadcaster.
	BroadcastTBC = "TBC"
)

const (
	SourceFootball = "football"
	SourceRugby    = "rugby"
	SourceGAA      = "gaa"
)

// Record is the canonical fixture shape every source is normalized into.
// Optional fields are empty strings, never absent.
type Record struct {
	Identity  string `validate:"required"`
	Date      string `validate:"required,datetime=2006-01-02"`
	Time      string
	Sport     string
	TeamHome  string
	TeamAway  string
	Venue     string
	Broadcast string
}

// Fields is the column set written to the remote store.
// TV is nil when the field must not be touched.
type Fields struct {
	FixtureID string  `json:"FixtureID"`
	Date      string  `json:"Date"`
	Time      string  `json:"Time"`
	Sport     string  `json:"Sport"`
	TeamA     string  `json:"TeamA"`
	TeamB     string  `json:"TeamB"`
	TV        *string `json:"TV,omitempty"`
	Venue     string  `json:"Venue"`
}

// CreateFields returns the full column set, broadcast included.
func (r Record) CreateFields() Fields {
	fields := r.UpdateFields()
	tv := r.Broadcast
	fields.TV = &tv
	return fields
}

// UpdateFields returns every column except TV, which is curated by hand
// once a row exists.
func (r Record) UpdateFields() Fields {
	return Fields{
		FixtureID: r.Identity,
		Date:      r.Date,
		Time:      r.Time,
		Sport:     r.Sport,
		TeamA:     r.TeamHome,
		TeamB:     r.TeamAway,
		Venue:     r.Venue,
	}
}

func (f Fields) HasTV() bool {
	return f.TV != nil
}

type CreatePlan struct {
	Fields Fields
}

type UpdatePlan struct {
	RowID  string
	Fields Fields
}

// RemoteRow pairs an opaque remote handle with the identity stored in it.
type RemoteRow struct {
	ID        string
	FixtureID string
}

type LookupPage struct {
	Rows   []RemoteRow
	Offset string
}

// RawPayload is one fixture document as a source delivered it.
type RawPayload struct {
	Source string
	Label  string
	Doc    []byte
}
