package tools

import (
	"fmt"
	"time"

	// Zone data for systems without a tz database.
	_ "time/tzdata"
)

// Zone is a named dispatch time zone.
type Zone struct {
	Code     string
	Label    string
	Location string
}

// Zones lists the converter's zones in display order.
var Zones = []Zone{
	{"IST", "India (IST)", "Asia/Kolkata"},
	{"UK", "UK (GMT/BST)", "Europe/London"},
	{"EST", "US Eastern", "America/New_York"},
	{"PST", "US Pacific", "America/Los_Angeles"},
}

// TimeZoneConverter shows one wall-clock time across the dispatch zones.
type TimeZoneConverter struct {
	now func() time.Time
}

// NewTimeZoneConverter returns a converter. now defaults to time.Now and
// supplies the date when none is entered.
func NewTimeZoneConverter(now func() time.Time) TimeZoneConverter {
	if now == nil {
		now = time.Now
	}
	return TimeZoneConverter{now: now}
}

func (TimeZoneConverter) ID() string          { return "timezone" }
func (TimeZoneConverter) Name() string        { return "Time Zone Converter" }
func (TimeZoneConverter) Icon() string        { return "🌍" }
func (TimeZoneConverter) Description() string { return "IST · GMT · EST · PST" }

func (TimeZoneConverter) Fields() []Field {
	codes := make([]string, len(Zones))
	for i, z := range Zones {
		codes[i] = z.Code
	}
	return []Field{
		{Key: "time", Label: "Time (HH:MM, 24h)", Kind: Clock, Placeholder: "e.g. 14:30"},
		{Key: "from", Label: "From zone", Kind: Choice, Default: "IST", Options: codes},
		{Key: "date", Label: "Date (YYYY-MM-DD, blank = today)", Kind: Clock},
	}
}

func (c TimeZoneConverter) Run(values map[string]string) (Result, error) {
	f := newForm(c, values)
	from, err := f.choice("from")
	if err != nil {
		return Result{}, err
	}
	src, err := loadZone(from)
	if err != nil {
		return Result{}, err
	}

	clock, err := time.Parse("15:04", f.raw("time"))
	if err != nil {
		return Result{}, fmt.Errorf("time: %q is not HH:MM", f.raw("time"))
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	day := now().In(src)
	if d := f.raw("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return Result{}, fmt.Errorf("date: %q is not YYYY-MM-DD", d)
		}
		day = parsed
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, src)

	var r Result
	r.Verdict = Info
	r.Summary = fmt.Sprintf("%s %s", at.Format("Mon 02 Jan 15:04"), from)
	for _, z := range Zones {
		loc, err := loadZone(z.Code)
		if err != nil {
			return Result{}, err
		}
		t := at.In(loc)
		r.add(z.Label, "%s (%s)", t.Format("Mon 15:04"), t.Format("MST"))
	}
	return r, nil
}

func loadZone(code string) (*time.Location, error) {
	for _, z := range Zones {
		if z.Code == code {
			loc, err := time.LoadLocation(z.Location)
			if err != nil {
				return nil, fmt.Errorf("load zone %s: %w", z.Location, err)
			}
			return loc, nil
		}
	}
	return nil, fmt.Errorf("unknown zone %q", code)
}
