package tools

import "fmt"

// Working Time Directive and tachograph limits.
const (
	MaxContinuous     = 4.5
	MaxFortnight      = 90.0
	WTDMaxWeek        = 60.0
	WTDAverageWeek    = 48.0
	seriousDailyExtra = 1.0
)

// TachographChecker lists infringements in a driver's recorded hours.
type TachographChecker struct{}

func (TachographChecker) ID() string          { return "tacho" }
func (TachographChecker) Name() string        { return "Tachograph Checker" }
func (TachographChecker) Icon() string        { return "📋" }
func (TachographChecker) Description() string { return "UK · Infringement · WTD hours" }

func (TachographChecker) Fields() []Field {
	return []Field{
		{Key: "daily", Label: "Driving on the day (hours)", Kind: Number, Default: "0"},
		{Key: "extended", Label: "Was this a 10-hour day?", Kind: Choice, Default: "no", Options: []string{"no", "yes"}},
		{Key: "continuous", Label: "Longest driving without a break (hours)", Kind: Number, Default: "0"},
		{Key: "week_driving", Label: "Driving this week (hours)", Kind: Number, Default: "0"},
		{Key: "fortnight_driving", Label: "Driving over two weeks (hours)", Kind: Number, Default: "0"},
		{Key: "week_working", Label: "Working time this week (hours)", Kind: Number, Default: "0"},
		{Key: "average_working", Label: "Average weekly working time (17 weeks)", Kind: Number, Default: "0"},
	}
}

func (c TachographChecker) Run(values map[string]string) (Result, error) {
	f := newForm(c, values)
	extended, err := f.choice("extended")
	if err != nil {
		return Result{}, err
	}
	n := make(map[string]float64)
	for _, k := range []string{"daily", "continuous", "week_driving", "fortnight_driving", "week_working", "average_working"} {
		v, err := f.number(k)
		if err != nil {
			return Result{}, err
		}
		n[k] = v
	}
	if n["fortnight_driving"] > 0 && n["fortnight_driving"] < n["week_driving"] {
		return Result{}, fmt.Errorf("two-week driving cannot be less than this week's driving")
	}

	dailyLimit := DailyDriving
	if extended == "yes" {
		dailyLimit = ExtendedDriving
	}

	var r Result
	serious := false
	infringe := func(msg string, args ...any) {
		r.Notes = append(r.Notes, fmt.Sprintf(msg, args...))
	}

	if over := n["daily"] - dailyLimit; over > 0 {
		infringe("Daily driving %s over the %s limit.", hm(over), hm(dailyLimit))
		if over >= seriousDailyExtra {
			serious = true
		}
	}
	if over := n["continuous"] - MaxContinuous; over > 0 {
		infringe("Drove %s without a 45-minute break (max %s).", hm(n["continuous"]), hm(MaxContinuous))
	}
	if over := n["week_driving"] - WeeklyDriving; over > 0 {
		infringe("Weekly driving %s over the %s limit.", hm(over), hm(WeeklyDriving))
		serious = true
	}
	if over := n["fortnight_driving"] - MaxFortnight; over > 0 {
		infringe("Two-week driving %s over the %s limit.", hm(over), hm(MaxFortnight))
	}
	if over := n["week_working"] - WTDMaxWeek; over > 0 {
		infringe("Working time %s over the WTD weekly maximum of %s.", hm(over), hm(WTDMaxWeek))
	}
	if over := n["average_working"] - WTDAverageWeek; over > 0 {
		infringe("Average working week %s over the WTD %s average.", hm(over), hm(WTDAverageWeek))
	}

	r.add("Daily driving", "%s / %s", hm(n["daily"]), hm(dailyLimit))
	r.add("Continuous driving", "%s / %s", hm(n["continuous"]), hm(MaxContinuous))
	r.add("Weekly driving", "%s / %s", hm(n["week_driving"]), hm(WeeklyDriving))
	r.add("Two-week driving", "%s / %s", hm(n["fortnight_driving"]), hm(MaxFortnight))
	r.add("WTD working week", "%s / %s", hm(n["week_working"]), hm(WTDMaxWeek))
	r.add("WTD average", "%s / %s", hm(n["average_working"]), hm(WTDAverageWeek))

	switch {
	case len(r.Notes) == 0:
		r.Verdict = OK
		r.Summary = "No infringements."
	case serious:
		r.Verdict = Fail
		r.Summary = fmt.Sprintf("%d infringement(s), including a serious one.", len(r.Notes))
	default:
		r.Verdict = Warn
		r.Summary = fmt.Sprintf("%d infringement(s).", len(r.Notes))
	}
	return r, nil
}
