// Package tax implements progressive income tax arithmetic over versioned,
// jurisdiction-keyed bracket tables. All math uses shopspring/decimal; the
// package is pure and performs no I/O.
package tax

import "github.com/shopspring/decimal"

// noUpperBound caps the top bracket of every schedule. Any realistic taxable
// income falls below it.
var noUpperBound = decimal.NewFromInt(999999999)

// Bracket is one marginal rate band. Min is inclusive, Max exclusive except
// for the top bracket, whose Max is the noUpperBound sentinel.
type Bracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// Schedule is an ordered list of contiguous, non-overlapping brackets,
// ascending by Min.
type Schedule []Bracket

// RateAt returns the marginal rate applicable at the given income level.
// Zero or negative income falls in the lowest bracket.
func (s Schedule) RateAt(income decimal.Decimal) decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	for _, b := range s {
		if income.LessThan(b.Max) {
			return b.Rate
		}
	}
	return s[len(s)-1].Rate
}

func bracket(min, max int64, rate string) Bracket {
	return Bracket{
		Min:  decimal.NewFromInt(min),
		Max:  decimal.NewFromInt(max),
		Rate: decimal.RequireFromString(rate),
	}
}

func topBracket(min int64, rate string) Bracket {
	return Bracket{
		Min:  decimal.NewFromInt(min),
		Max:  noUpperBound,
		Rate: decimal.RequireFromString(rate),
	}
}

// latestYear is the most recent year with published tables. Lookups for
// unknown years fall back to it.
const latestYear = 2024

// DefaultProvince is used when a user's tax settings name a province with no
// published table. Falling back keeps the estimate usable rather than failing.
const DefaultProvince = "ON"

// federalSchedules holds federal brackets by tax year. This is the single
// source for every calculator in the repo; call sites never carry their own
// copies of these tables.
var federalSchedules = map[int]Schedule{
	2024: {
		bracket(0, 55867, "0.15"),
		bracket(55867, 111733, "0.205"),
		bracket(111733, 173205, "0.26"),
		bracket(173205, 246752, "0.29"),
		topBracket(246752, "0.33"),
	},
}

// provincialSchedules holds provincial brackets keyed by year then province.
var provincialSchedules = map[int]map[string]Schedule{
	2024: {
		"ON": {
			bracket(0, 51446, "0.0505"),
			bracket(51446, 102894, "0.0915"),
			bracket(102894, 150000, "0.1116"),
			bracket(150000, 220000, "0.1216"),
			topBracket(220000, "0.1316"),
		},
		"BC": {
			bracket(0, 47937, "0.0506"),
			bracket(47937, 95875, "0.077"),
			bracket(95875, 110076, "0.105"),
			bracket(110076, 133664, "0.1229"),
			bracket(133664, 181232, "0.147"),
			bracket(181232, 252752, "0.168"),
			topBracket(252752, "0.205"),
		},
		"AB": {
			bracket(0, 148269, "0.10"),
			bracket(148269, 177922, "0.12"),
			bracket(177922, 237230, "0.13"),
			bracket(237230, 355845, "0.14"),
			topBracket(355845, "0.15"),
		},
	},
}

// FederalSchedule returns the federal bracket table for a tax year, falling
// back to the latest published year.
func FederalSchedule(year int) Schedule {
	if s, ok := federalSchedules[year]; ok {
		return s
	}
	return federalSchedules[latestYear]
}

// ProvincialSchedule returns the bracket table for a province and tax year.
// Unknown provinces fall back to DefaultProvince, unknown years to the latest
// published year.
func ProvincialSchedule(year int, province string) Schedule {
	byProvince, ok := provincialSchedules[year]
	if !ok {
		byProvince = provincialSchedules[latestYear]
	}
	if s, ok := byProvince[province]; ok {
		return s
	}
	return byProvince[DefaultProvince]
}
