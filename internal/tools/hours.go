package tools

import "fmt"

// UK/EU drivers' hours limits.
const (
	DailyDriving      = 9.0
	ExtendedDriving   = 10.0
	ExtensionsPerWeek = 2
	WeeklyDriving     = 56.0
	BreakAfter        = 4.5
	BreakLength       = 0.75
)

// DriversHours answers whether a driver can legally complete a load.
type DriversHours struct{}

func (DriversHours) ID() string          { return "hours" }
func (DriversHours) Name() string        { return "Drivers' Hours Checker" }
func (DriversHours) Icon() string        { return "⏱" }
func (DriversHours) Description() string { return "UK · Can they legally complete this load?" }

func (DriversHours) Fields() []Field {
	return []Field{
		{Key: "driven_today", Label: "Driven today (hours)", Kind: Number, Default: "0"},
		{Key: "since_break", Label: "Driven since last break (hours)", Kind: Number, Default: "0"},
		{Key: "driven_week", Label: "Driven this week (hours)", Kind: Number, Default: "0"},
		{Key: "extensions_used", Label: "10-hour days used this week", Kind: Choice, Default: "0", Options: []string{"0", "1", "2"}},
		{Key: "trip", Label: "Driving needed for the load (hours)", Kind: Number, Placeholder: "e.g. 3.5"},
	}
}

func (d DriversHours) Run(values map[string]string) (Result, error) {
	f := newForm(d, values)
	today, err := f.number("driven_today")
	if err != nil {
		return Result{}, err
	}
	sinceBreak, err := f.number("since_break")
	if err != nil {
		return Result{}, err
	}
	week, err := f.number("driven_week")
	if err != nil {
		return Result{}, err
	}
	ext, err := f.choice("extensions_used")
	if err != nil {
		return Result{}, err
	}
	trip, err := f.number("trip")
	if err != nil {
		return Result{}, err
	}
	if sinceBreak > today {
		return Result{}, fmt.Errorf("driving since the last break cannot exceed driving today")
	}

	limit := DailyDriving
	canExtend := ext != fmt.Sprint(ExtensionsPerWeek)
	if canExtend && today+trip > DailyDriving {
		limit = ExtendedDriving
	}

	dailyLeft := limit - today
	weeklyLeft := WeeklyDriving - week
	allowed := min(dailyLeft, weeklyLeft)

	breaks := breaksNeeded(sinceBreak, trip)

	var r Result
	r.add("Daily limit", "%s", hm(limit))
	r.add("Daily driving left", "%s", hm(max(dailyLeft, 0)))
	r.add("Weekly driving left", "%s", hm(max(weeklyLeft, 0)))
	r.add("45-minute breaks needed", "%d", breaks)
	r.add("Trip time with breaks", "%s", hm(trip+float64(breaks)*BreakLength))

	switch {
	case trip <= allowed && limit == ExtendedDriving:
		r.Verdict = Warn
		r.Summary = "Legal, but only by using a 10-hour extension."
	case trip <= allowed:
		r.Verdict = OK
		r.Summary = "The driver can legally complete this load."
	default:
		r.Verdict = Fail
		r.Summary = fmt.Sprintf("Not legal: %s short of driving time.", hm(trip-max(allowed, 0)))
		if weeklyLeft < dailyLeft {
			r.Notes = append(r.Notes, "The weekly 56-hour limit is the constraint.")
		} else {
			r.Notes = append(r.Notes, "Plan a daily rest or a relay driver.")
		}
	}
	if !canExtend {
		r.Notes = append(r.Notes, "Both 10-hour extensions are used this week.")
	}
	return r, nil
}

// breaksNeeded counts the 45-minute breaks due while driving trip hours
// when sinceBreak hours have already been driven without one.
func breaksNeeded(sinceBreak, trip float64) int {
	if trip <= 0 {
		return 0
	}
	n := 0
	remaining := trip
	stint := BreakAfter - sinceBreak
	for remaining > stint {
		n++
		remaining -= max(stint, 0)
		stint = BreakAfter
	}
	return n
}
