package tax

import "github.com/shopspring/decimal"

// The deduction-savings estimate deliberately does not reuse the federal and
// provincial tables above. It is a coarser display-only approximation: a flat
// rate for modest incomes and a blended combined-rate schedule above that.
// Keep it as its own named table; it is not a simplification of the main ones.

var savingsFlatThreshold = decimal.NewFromInt(100000)

var savingsFlatRate = decimal.RequireFromString("0.22")

// savingsBlendedSchedule approximates combined federal + Ontario marginal
// rates for the savings display figure.
var savingsBlendedSchedule = Schedule{
	bracket(0, 55867, "0.2005"),
	bracket(55867, 102894, "0.2965"),
	bracket(102894, 150000, "0.3791"),
	bracket(150000, 220000, "0.4497"),
	topBracket(220000, "0.5353"),
}

// EstimateDeductionSavings estimates the tax saved by the given deductions at
// the projected business income level. Below the flat threshold a flat rate
// applies; above it, the blended schedule's marginal rate at that income.
func EstimateDeductionSavings(totalDeductions, projectedBusinessIncome decimal.Decimal) decimal.Decimal {
	if totalDeductions.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	rate := savingsFlatRate
	if projectedBusinessIncome.GreaterThanOrEqual(savingsFlatThreshold) {
		rate = savingsBlendedSchedule.RateAt(projectedBusinessIncome)
	}
	return totalDeductions.Mul(rate).Round(2)
}
