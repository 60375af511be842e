// Package currency rescales monetary values between display currencies.
// All rates are expressed relative to a single anchor currency, so a
// conversion is amount × rates[to]/rates[from].
package currency

import (
	"fmt"

	"github.com/liorbh/folio/internal/estimate"
)

// Rates maps a currency code to its value relative to the anchor currency.
type Rates map[string]float64

// RateUnavailableError reports a currency code whose rate is missing or not
// positive. Callers fall back to reference-currency amounts instead of
// aborting.
type RateUnavailableError struct {
	Code string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no exchange rate for %q", e.Code)
}

// Convert rescales amount from one currency to another. The identity case
// short-circuits before any table lookup, so converting to the currency the
// value is already in never fails even on an empty table.
func Convert(amount float64, from, to string, rates Rates) (float64, error) {
	if from == to {
		return amount, nil
	}

	fromRate, ok := rates[from]
	if !ok || fromRate <= 0 {
		return 0, &RateUnavailableError{Code: from}
	}
	toRate, ok := rates[to]
	if !ok || toRate <= 0 {
		return 0, &RateUnavailableError{Code: to}
	}

	return amount * (toRate / fromRate), nil
}

// ConvertBreakdown rescales every monetary field of a breakdown into the
// requested display currency. Multipliers and counts are untouched; they
// were already folded into the amounts.
func ConvertBreakdown(b estimate.Breakdown, to string, rates Rates) (estimate.Breakdown, error) {
	from := b.Currency
	if to == "" || to == from {
		return b, nil
	}

	out := b
	var err error
	if out.BaseCost, err = Convert(b.BaseCost, from, to, rates); err != nil {
		return estimate.Breakdown{}, err
	}
	if out.PageCost, err = Convert(b.PageCost, from, to, rates); err != nil {
		return estimate.Breakdown{}, err
	}

	out.FeatureCosts = make(map[string]float64, len(b.FeatureCosts))
	for key, cost := range b.FeatureCosts {
		if out.FeatureCosts[key], err = Convert(cost, from, to, rates); err != nil {
			return estimate.Breakdown{}, err
		}
	}

	if out.Subtotal, err = Convert(b.Subtotal, from, to, rates); err != nil {
		return estimate.Breakdown{}, err
	}
	if out.Total, err = Convert(b.Total, from, to, rates); err != nil {
		return estimate.Breakdown{}, err
	}
	if out.Range.Min, err = Convert(b.Range.Min, from, to, rates); err != nil {
		return estimate.Breakdown{}, err
	}
	if out.Range.Max, err = Convert(b.Range.Max, from, to, rates); err != nil {
		return estimate.Breakdown{}, err
	}

	out.Currency = to
	return out, nil
}
