package tax

import "github.com/shopspring/decimal"

// Result holds the outcome of a combined federal + provincial tax calculation.
type Result struct {
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	FederalTax    decimal.Decimal `json:"federal_tax"`
	ProvincialTax decimal.Decimal `json:"provincial_tax"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
}

// ComputeBracketTax walks a schedule ascending by Min, taxing the slice of
// income that falls within each bracket at that bracket's rate. The result is
// rounded to cents.
func ComputeBracketTax(taxableIncome decimal.Decimal, schedule Schedule) decimal.Decimal {
	if taxableIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	tax := decimal.Zero
	remaining := taxableIncome
	for _, b := range schedule {
		span := b.Max.Sub(b.Min)
		taxableInBracket := decimal.Min(remaining, span)
		tax = tax.Add(taxableInBracket.Mul(b.Rate))
		remaining = remaining.Sub(taxableInBracket)
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
	}
	return tax.Round(2)
}

// Calculator computes combined tax for one jurisdiction pairing.
type Calculator struct {
	Year     int
	Province string
}

// NewCalculator creates a Calculator for the given tax year and province.
func NewCalculator(year int, province string) *Calculator {
	if province == "" {
		province = DefaultProvince
	}
	return &Calculator{Year: year, Province: province}
}

// Compute reduces net income by the credits, floors taxable income at zero,
// and runs both jurisdiction tables. EffectiveRate is zero when taxable
// income is zero; no division guard error is ever raised.
func (c *Calculator) Compute(netIncome, personalCredit, otherCredits decimal.Decimal) Result {
	taxable := netIncome.Sub(personalCredit).Sub(otherCredits)
	if taxable.LessThan(decimal.Zero) {
		taxable = decimal.Zero
	}

	federal := ComputeBracketTax(taxable, FederalSchedule(c.Year))
	provincial := ComputeBracketTax(taxable, ProvincialSchedule(c.Year, c.Province))
	total := federal.Add(provincial)

	effective := decimal.Zero
	if taxable.GreaterThan(decimal.Zero) {
		effective = total.Div(taxable).Round(4)
	}

	return Result{
		TaxableIncome: taxable,
		FederalTax:    federal,
		ProvincialTax: provincial,
		TotalTax:      total,
		EffectiveRate: effective,
	}
}

// MarginalRate returns the combined federal + provincial marginal rate at an
// income level. Used to estimate the instantaneous tax saving when a single
// expense is newly categorized as deductible.
func (c *Calculator) MarginalRate(income decimal.Decimal) decimal.Decimal {
	federal := FederalSchedule(c.Year).RateAt(income)
	provincial := ProvincialSchedule(c.Year, c.Province).RateAt(income)
	return federal.Add(provincial)
}
