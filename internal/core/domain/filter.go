package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

const (
	// ShowFuture is the only "show" value that reveals questions published after now.
	ShowFuture = "future"
	// OrderOldest is the only "order" value that sorts ascending by publish time.
	OrderOldest = "oldest"
	// DateLayout is the accepted form of the start and end filters.
	DateLayout = "2006-01-02"
)

type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

func (o SortOrder) String() string {
	if o == OldestFirst {
		return "oldest"
	}
	return "newest"
}

func (o SortOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// OptionalDate is a calendar date parsed from a query value. When the raw value
// is absent or malformed Valid is false and the date must not be used.
type OptionalDate struct {
	Raw   string
	Valid bool
	Year  int
	Month time.Month
	Day   int
}

// ParseDate never fails: anything that is not a YYYY-MM-DD date yields an
// OptionalDate with Valid == false.
func ParseDate(raw string) OptionalDate {
	d := OptionalDate{Raw: raw}
	if raw == "" {
		return d
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return d
	}
	d.Valid = true
	d.Year, d.Month, d.Day = t.Date()
	return d
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) OptionalDate {
	y, m, d := t.Date()
	return OptionalDate{Raw: t.Format(DateLayout), Valid: true, Year: y, Month: m, Day: d}
}

// Midnight is the first instant of the date in loc.
func (d OptionalDate) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d OptionalDate) String() string {
	if !d.Valid {
		return ""
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// MarshalJSON encodes the parsed date, or null when no date applies.
func (d OptionalDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *OptionalDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = OptionalDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}

// QuestionFilter is the parsed, explicit form of the list parameters. The
// date component of a publish time is taken in Now's location.
type QuestionFilter struct {
	Now           time.Time
	IncludeFuture bool
	Search        string
	Start         OptionalDate
	End           OptionalDate
	Order         SortOrder
	// Limit caps the returned sample; zero or negative means uncapped.
	Limit int
}

func (f QuestionFilter) location() *time.Location {
	if loc := f.Now.Location(); loc != nil {
		return loc
	}
	return time.UTC
}

// StartBound is the inclusive lower publish-time bound implied by Start.
func (f QuestionFilter) StartBound() (time.Time, bool) {
	if !f.Start.Valid {
		return time.Time{}, false
	}
	return f.Start.Midnight(f.location()), true
}

// EndBound is the exclusive upper publish-time bound implied by End: midnight
// of the following day.
func (f QuestionFilter) EndBound() (time.Time, bool) {
	if !f.End.Valid {
		return time.Time{}, false
	}
	return f.End.Midnight(f.location()).AddDate(0, 0, 1), true
}

// Matches reports whether q satisfies every active filter.
func (f QuestionFilter) Matches(q Question) bool {
	if !f.IncludeFuture && q.PublishTime.After(f.Now) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(q.Text), strings.ToLower(f.Search)) {
		return false
	}
	if start, ok := f.StartBound(); ok && q.PublishTime.Before(start) {
		return false
	}
	if end, ok := f.EndBound(); ok && !q.PublishTime.Before(end) {
		return false
	}
	return true
}

// Sort orders questions by publish time in the filter's direction, breaking
// ties on the identifier in the same direction.
func (f QuestionFilter) Sort(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		if !a.PublishTime.Equal(b.PublishTime) {
			if f.Order == OldestFirst {
				return a.PublishTime.Before(b.PublishTime)
			}
			return a.PublishTime.After(b.PublishTime)
		}
		if f.Order == OldestFirst {
			return a.ID.String() < b.ID.String()
		}
		return a.ID.String() > b.ID.String()
	})
}

// Apply filters, sorts and caps questions. It returns the capped sample and the
// size of the full filtered set. The input slice is not modified.
func (f QuestionFilter) Apply(questions []Question) ([]Question, int) {
	matched := make([]Question, 0, len(questions))
	for _, q := range questions {
		if f.Matches(q) {
			matched = append(matched, q)
		}
	}
	f.Sort(matched)

	count := len(matched)
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, count
}
