package currency

import (
	"errors"
	"math"
	"testing"

	"github.com/liorbh/folio/internal/estimate"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestConvert_IdentityNeedsNoRates(t *testing.T) {
	got, err := Convert(1550, "ILS", "ILS", Rates{})
	if err != nil {
		t.Fatalf("identity conversion returned error: %v", err)
	}
	nearlyEqual(t, "identity", got, 1550)

	got, err = Convert(99.5, "USD", "USD", nil)
	if err != nil {
		t.Fatalf("identity conversion on nil rates returned error: %v", err)
	}
	nearlyEqual(t, "identity nil rates", got, 99.5)
}

func TestConvert_UsesRatioOfRates(t *testing.T) {
	rates := Rates{"ILS": 1, "USD": 0.27, "EUR": 0.25}

	got, err := Convert(1000, "ILS", "USD", rates)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	nearlyEqual(t, "ILS→USD", got, 270)

	got, err = Convert(270, "USD", "EUR", rates)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	nearlyEqual(t, "USD→EUR", got, 250)
}

func TestConvert_RoundTripIsStable(t *testing.T) {
	rates := Rates{"ILS": 1, "USD": 0.27}

	usd, err := Convert(1234.56, "ILS", "USD", rates)
	if err != nil {
		t.Fatalf("forward conversion returned error: %v", err)
	}
	back, err := Convert(usd, "USD", "ILS", rates)
	if err != nil {
		t.Fatalf("reverse conversion returned error: %v", err)
	}

	if math.Abs(back-1234.56) > 1e-6 {
		t.Fatalf("round trip drifted: got %v", back)
	}
}

func TestConvert_MissingRateFails(t *testing.T) {
	rates := Rates{"ILS": 1}

	_, err := Convert(100, "ILS", "GBP", rates)
	var rateErr *RateUnavailableError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateUnavailableError, got %v", err)
	}
	if rateErr.Code != "GBP" {
		t.Fatalf("expected missing code GBP, got %q", rateErr.Code)
	}

	_, err = Convert(100, "GBP", "ILS", rates)
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateUnavailableError for missing source rate, got %v", err)
	}
}

func TestConvert_ZeroSourceRateIsUnavailable(t *testing.T) {
	rates := Rates{"ILS": 0, "USD": 0.27}

	_, err := Convert(100, "ILS", "USD", rates)
	var rateErr *RateUnavailableError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateUnavailableError for zero rate, got %v", err)
	}
}

func TestConvert_ZeroTargetRateIsUnavailable(t *testing.T) {
	rates := Rates{"ILS": 1, "XXX": 0}

	_, err := Convert(100, "ILS", "XXX", rates)
	var rateErr *RateUnavailableError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateUnavailableError for zero target rate, got %v", err)
	}
	if rateErr.Code != "XXX" {
		t.Fatalf("expected code XXX, got %q", rateErr.Code)
	}
}

func TestConvertBreakdown_RescalesEveryMonetaryField(t *testing.T) {
	b := estimate.Breakdown{
		BaseCost:     1000,
		PageCost:     250,
		FeatureCosts: map[string]float64{"cms": 300},
		Subtotal:     1550,
		Total:        1395,
		Range:        estimate.Range{Min: 1185.75, Max: 1604.25},
		Currency:     "ILS",
	}
	rates := Rates{"ILS": 1, "USD": 0.5}

	out, err := ConvertBreakdown(b, "USD", rates)
	if err != nil {
		t.Fatalf("ConvertBreakdown returned error: %v", err)
	}

	nearlyEqual(t, "baseCost", out.BaseCost, 500)
	nearlyEqual(t, "pageCost", out.PageCost, 125)
	nearlyEqual(t, "featureCosts[cms]", out.FeatureCosts["cms"], 150)
	nearlyEqual(t, "subtotal", out.Subtotal, 775)
	nearlyEqual(t, "total", out.Total, 697.5)
	nearlyEqual(t, "range.min", out.Range.Min, 592.875)
	nearlyEqual(t, "range.max", out.Range.Max, 802.125)
	if out.Currency != "USD" {
		t.Fatalf("expected currency USD, got %q", out.Currency)
	}

	// The input must stay untouched.
	nearlyEqual(t, "original baseCost", b.BaseCost, 1000)
	nearlyEqual(t, "original featureCosts[cms]", b.FeatureCosts["cms"], 300)
}

func TestConvertBreakdown_SameOrEmptyTargetIsPassThrough(t *testing.T) {
	b := estimate.Breakdown{Total: 1550, Currency: "ILS"}

	out, err := ConvertBreakdown(b, "ILS", nil)
	if err != nil {
		t.Fatalf("ConvertBreakdown returned error: %v", err)
	}
	nearlyEqual(t, "same currency total", out.Total, 1550)

	out, err = ConvertBreakdown(b, "", nil)
	if err != nil {
		t.Fatalf("ConvertBreakdown returned error: %v", err)
	}
	nearlyEqual(t, "empty target total", out.Total, 1550)
}

func TestConvertBreakdown_MissingRatePropagates(t *testing.T) {
	b := estimate.Breakdown{Total: 100, Currency: "ILS"}

	_, err := ConvertBreakdown(b, "JPY", Rates{"ILS": 1})
	var rateErr *RateUnavailableError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateUnavailableError, got %v", err)
	}
}
