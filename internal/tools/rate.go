package tools

import "fmt"

// EmptyRunningTarget is the share of empty miles a dispatcher aims to stay
// under, in percent.
const EmptyRunningTarget = 15.0

// RateCalculator works out cost per mile and profitability of a load.
type RateCalculator struct{}

func (RateCalculator) ID() string          { return "rate" }
func (RateCalculator) Name() string        { return "Rate Calculator" }
func (RateCalculator) Icon() string        { return "💷" }
func (RateCalculator) Description() string { return "UK & USA · Cost per mile · Profitability" }

func (RateCalculator) Fields() []Field {
	return []Field{
		{Key: "market", Label: "Market", Kind: Choice, Default: "UK", Options: []string{"UK", "USA"}},
		{Key: "rate", Label: "Load rate (total)", Kind: Number, Placeholder: "e.g. 450"},
		{Key: "loaded_miles", Label: "Loaded miles", Kind: Number, Placeholder: "e.g. 220"},
		{Key: "empty_miles", Label: "Empty miles to pickup", Kind: Number, Default: "0"},
		{Key: "fuel_per_mile", Label: "Fuel cost per mile", Kind: Number, Default: "0.60"},
		{Key: "other_costs", Label: "Other trip costs (tolls, driver)", Kind: Number, Default: "0"},
	}
}

func (c RateCalculator) Run(values map[string]string) (Result, error) {
	f := newForm(c, values)
	market, err := f.choice("market")
	if err != nil {
		return Result{}, err
	}
	nums := make(map[string]float64)
	for _, k := range []string{"rate", "loaded_miles", "empty_miles", "fuel_per_mile", "other_costs"} {
		n, err := f.number(k)
		if err != nil {
			return Result{}, err
		}
		nums[k] = n
	}
	if nums["loaded_miles"] == 0 {
		return Result{}, fmt.Errorf("loaded miles must be greater than zero")
	}

	cur := "£"
	if market == "USA" {
		cur = "$"
	}
	money := func(v float64) string {
		if v < 0 {
			return fmt.Sprintf("-%s%.2f", cur, -v)
		}
		return fmt.Sprintf("%s%.2f", cur, v)
	}

	totalMiles := nums["loaded_miles"] + nums["empty_miles"]
	cost := nums["fuel_per_mile"]*totalMiles + nums["other_costs"]
	profit := nums["rate"] - cost
	emptyPct := nums["empty_miles"] / totalMiles * 100

	var r Result
	r.add("Total miles", "%.0f", totalMiles)
	r.add("Revenue per loaded mile", "%s", money(nums["rate"]/nums["loaded_miles"]))
	r.add("Revenue per total mile", "%s", money(nums["rate"]/totalMiles))
	r.add("Cost per mile", "%s", money(cost/totalMiles))
	r.add("Trip cost", "%s", money(cost))
	r.add("Profit", "%s", money(profit))
	if nums["rate"] > 0 {
		r.add("Margin", "%.1f%%", profit/nums["rate"]*100)
	}
	r.add("Empty running", "%.1f%%", emptyPct)

	switch {
	case profit < 0:
		r.Verdict = Fail
		r.Summary = "This load loses money."
	case emptyPct > EmptyRunningTarget:
		r.Verdict = Warn
		r.Summary = "Profitable, but empty running is above target."
	default:
		r.Verdict = OK
		r.Summary = "Profitable load."
	}
	if emptyPct > EmptyRunningTarget {
		r.Notes = append(r.Notes, fmt.Sprintf("Keep empty running under %.0f%% of total miles.", EmptyRunningTarget))
	}
	return r, nil
}
