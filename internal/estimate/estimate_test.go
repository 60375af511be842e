package estimate

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func websiteModel() PricingModel {
	return PricingModel{
		ReferenceCurrency: "ILS",
		PerPageRate:       50,
		ProjectTypes: []ProjectType{
			{Key: "website", DisplayName: "Website", BaseRate: 1000},
			{Key: "ecommerce", DisplayName: "E-commerce", BaseRate: 2500},
		},
		Features: []Feature{
			{Key: "cms", DisplayName: "CMS", Cost: 300},
			{Key: "seo", DisplayName: "SEO", Cost: 200},
		},
		MultiplierGroups: []MultiplierGroup{
			{Key: GroupComplexity, Options: []MultiplierOption{
				{Key: "simple", Multiplier: 0.8},
				{Key: "advanced", Multiplier: 1.5},
			}},
			{Key: GroupTimeline, Options: []MultiplierOption{
				{Key: "rush", Multiplier: 1.4},
			}},
			{Key: GroupTech, Options: []MultiplierOption{
				{Key: "react", Multiplier: 1.1},
			}},
			{Key: GroupClientType, Options: []MultiplierOption{
				{Key: "startup", Multiplier: 0.9},
				{Key: "enterprise", Multiplier: 1.3},
			}},
		},
	}
}

func TestCalculate_BaseScenarioWithoutMultipliers(t *testing.T) {
	model := websiteModel()
	in := Inputs{
		ProjectTypeKey:      "website",
		NumPages:            5,
		SelectedFeatureKeys: []string{"cms"},
		Currency:            "ILS",
	}

	b, err := Calculate(model, in, nil)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "baseCost", b.BaseCost, 1000)
	nearlyEqual(t, "pageCost", b.PageCost, 250)
	nearlyEqual(t, "featureCosts[cms]", b.FeatureCosts["cms"], 300)
	nearlyEqual(t, "subtotal", b.Subtotal, 1550)
	nearlyEqual(t, "total", b.Total, 1550)
	if b.DiscountApplied != nil {
		t.Fatalf("expected no discount applied, got %+v", b.DiscountApplied)
	}
	if b.Currency != "ILS" {
		t.Fatalf("expected reference currency ILS, got %q", b.Currency)
	}
}

func TestCalculate_AllMultipliersApply(t *testing.T) {
	model := websiteModel()
	in := Inputs{
		ProjectTypeKey: "website",
		ComplexityKey:  "advanced",
		TimelineKey:    "rush",
		TechKey:        "react",
		ClientTypeKey:  "startup",
	}

	b, err := Calculate(model, in, nil)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "subtotal", b.Subtotal, 1000*1.5*1.4*1.1*0.9)
}

func TestCalculate_UnknownKeysDegradeToDefaults(t *testing.T) {
	model := websiteModel()
	in := Inputs{
		ProjectTypeKey:      "mobile-app",
		NumPages:            -3,
		SelectedFeatureKeys: []string{"cms", "hologram", "cms"},
		ComplexityKey:       "impossible",
		TimelineKey:         "yesterday",
	}

	b, err := Calculate(model, in, nil)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "baseCost", b.BaseCost, 0)
	nearlyEqual(t, "pageCost", b.PageCost, 0)
	if want := map[string]float64{"cms": 300}; !reflect.DeepEqual(b.FeatureCosts, want) {
		t.Fatalf("featureCosts = %v, want %v", b.FeatureCosts, want)
	}
	nearlyEqual(t, "subtotal", b.Subtotal, 300)
}

func TestCalculate_PercentDiscountUnrestrictedScope(t *testing.T) {
	model := websiteModel()
	in := Inputs{ProjectTypeKey: "website", NumPages: 5, SelectedFeatureKeys: []string{"cms"}}
	discount := &Discount{Type: DiscountPercent, Amount: 10}

	b, err := Calculate(model, in, discount)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "subtotal", b.Subtotal, 1550)
	nearlyEqual(t, "total", b.Total, 1395)
	if b.DiscountApplied == nil || b.DiscountApplied.Type != DiscountPercent || b.DiscountApplied.Amount != 10 {
		t.Fatalf("unexpected applied discount: %+v", b.DiscountApplied)
	}
}

func TestCalculate_FixedDiscountFloorsAtZero(t *testing.T) {
	model := websiteModel()
	in := Inputs{ProjectTypeKey: "website"}
	discount := &Discount{Type: DiscountFixed, Amount: 5000}

	b, err := Calculate(model, in, discount)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "total", b.Total, 0)
	nearlyEqual(t, "range.min", b.Range.Min, 0)
	nearlyEqual(t, "range.max", b.Range.Max, 0)
}

func TestCalculate_IneligibleDiscountIsSilentNoOp(t *testing.T) {
	model := websiteModel()
	in := Inputs{ProjectTypeKey: "website", ClientTypeKey: "enterprise"}
	discount := &Discount{
		Type:      DiscountPercent,
		Amount:    50,
		AppliesTo: Scope{ExcludeClientTypes: []string{"enterprise"}},
	}

	b, err := Calculate(model, in, discount)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	if b.DiscountApplied != nil {
		t.Fatalf("expected discount to be skipped, got %+v", b.DiscountApplied)
	}
	nearlyEqual(t, "total", b.Total, b.Subtotal)
}

func TestCalculate_RangeUsesModelBandOrDefault(t *testing.T) {
	model := websiteModel()
	in := Inputs{ProjectTypeKey: "website"}

	withDefault, err := Calculate(model, in, nil)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "default range.min", withDefault.Range.Min, 1000*DefaultBand.Lower)
	nearlyEqual(t, "default range.max", withDefault.Range.Max, 1000*DefaultBand.Upper)

	model.Band = Band{Lower: 0.9, Upper: 1.2}
	withBand, err := Calculate(model, in, nil)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "custom range.min", withBand.Range.Min, 900)
	nearlyEqual(t, "custom range.max", withBand.Range.Max, 1200)
}

func TestCalculate_MissingMultiplierGroupsIsConfigError(t *testing.T) {
	model := websiteModel()
	model.MultiplierGroups = nil

	_, err := Calculate(model, Inputs{ProjectTypeKey: "website"}, nil)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestCalculate_EmptyGroupsSliceIsValid(t *testing.T) {
	model := websiteModel()
	model.MultiplierGroups = []MultiplierGroup{}

	b, err := Calculate(model, Inputs{ProjectTypeKey: "website", ComplexityKey: "advanced"}, nil)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "subtotal", b.Subtotal, 1000)
}

func TestCalculate_IsDeterministic(t *testing.T) {
	model := websiteModel()
	in := Inputs{
		ProjectTypeKey:      "ecommerce",
		NumPages:            12,
		SelectedFeatureKeys: []string{"cms", "seo"},
		ComplexityKey:       "advanced",
		ClientTypeKey:       "enterprise",
	}
	discount := &Discount{Type: DiscountFixed, Amount: 150}

	first, err := Calculate(model, in, discount)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	second, err := Calculate(model, in, discount)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}
