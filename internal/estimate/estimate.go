package estimate

// Multiplier group keys the calculator knows about. The catalog may store
// additional groups, but only these four scale the subtotal.
const (
	GroupComplexity = "complexity"
	GroupTimeline   = "timeline"
	GroupTech       = "tech"
	GroupClientType = "clientType"
)

// ProjectType is a selectable kind of project with a base rate in the
// model's reference currency.
type ProjectType struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	BaseRate    float64 `json:"base_rate"`
}

// Feature is an optional add-on with a flat cost.
type Feature struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Cost        float64 `json:"cost"`
}

// MultiplierOption is one choice inside a multiplier group.
type MultiplierOption struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Multiplier  float64 `json:"multiplier"`
}

// MultiplierGroup is a named dimension (complexity, timeline, ...) whose
// selected option scales the subtotal.
type MultiplierGroup struct {
	Key     string             `json:"key"`
	Options []MultiplierOption `json:"options"`
}

// Band defines the presentation range around the total, as fractions of it.
type Band struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// DefaultBand is used when the model does not carry its own band.
var DefaultBand = Band{Lower: 0.85, Upper: 1.15}

// PricingModel is the read-only catalog every estimate is computed against.
// All monetary values are in ReferenceCurrency.
type PricingModel struct {
	ReferenceCurrency string            `json:"reference_currency"`
	PerPageRate       float64           `json:"per_page_rate"`
	ProjectTypes      []ProjectType     `json:"project_types"`
	Features          []Feature         `json:"features"`
	MultiplierGroups  []MultiplierGroup `json:"multiplier_groups"`
	Band              Band              `json:"band"`
}

// Inputs is a user's calculator selection. Unknown keys and out-of-range
// values never fail a calculation; they degrade to zero cost or to the
// identity multiplier.
type Inputs struct {
	ProjectTypeKey      string   `json:"project_type"`
	NumPages            int      `json:"num_pages"`
	SelectedFeatureKeys []string `json:"features"`
	ComplexityKey       string   `json:"complexity"`
	TimelineKey         string   `json:"timeline"`
	TechKey             string   `json:"tech"`
	ClientTypeKey       string   `json:"client_type"`
	Currency            string   `json:"currency"`
}

// DiscountType distinguishes percentage discounts from fixed amounts.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Discount is a code's effect and eligibility rules. Fixed amounts are in
// the reference currency.
type Discount struct {
	Type      DiscountType `json:"type"`
	Amount    float64      `json:"amount"`
	AppliesTo Scope        `json:"applies_to"`
}

// AppliedDiscount echoes the discount that actually reduced a breakdown.
type AppliedDiscount struct {
	Type   DiscountType `json:"type"`
	Amount float64      `json:"amount"`
}

// Range is the presentation band around the total.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Breakdown is the full output of a calculation, in Currency.
type Breakdown struct {
	BaseCost        float64            `json:"base_cost"`
	PageCost        float64            `json:"page_cost"`
	FeatureCosts    map[string]float64 `json:"feature_costs"`
	Subtotal        float64            `json:"subtotal"`
	DiscountApplied *AppliedDiscount   `json:"discount_applied,omitempty"`
	Total           float64            `json:"total"`
	Range           Range              `json:"range"`
	Currency        string             `json:"currency"`
}

// ConfigError reports a structurally invalid PricingModel. It is the only
// error Calculate returns; bad inputs never produce it.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "pricing model misconfigured: " + e.Reason
}

// Calculate computes a cost breakdown in the model's reference currency.
// Currency conversion for display is a separate pass over the result.
func Calculate(model PricingModel, in Inputs, discount *Discount) (Breakdown, error) {
	if model.MultiplierGroups == nil {
		return Breakdown{}, &ConfigError{Reason: "multiplier groups not loaded"}
	}

	baseCost := 0.0
	for _, pt := range model.ProjectTypes {
		if pt.Key == in.ProjectTypeKey {
			baseCost = pt.BaseRate
			break
		}
	}

	pages := in.NumPages
	if pages < 0 {
		pages = 0
	}
	pageCost := float64(pages) * model.PerPageRate

	featureCosts := make(map[string]float64)
	featureSum := 0.0
	for _, key := range in.SelectedFeatureKeys {
		if _, dup := featureCosts[key]; dup {
			continue
		}
		for _, f := range model.Features {
			if f.Key == key {
				featureCosts[f.Key] = f.Cost
				featureSum += f.Cost
				break
			}
		}
	}

	factor := model.multiplier(GroupComplexity, in.ComplexityKey) *
		model.multiplier(GroupTimeline, in.TimelineKey) *
		model.multiplier(GroupTech, in.TechKey) *
		model.multiplier(GroupClientType, in.ClientTypeKey)

	subtotal := (baseCost + pageCost + featureSum) * factor

	total := subtotal
	var applied *AppliedDiscount
	if discount != nil && MatchesScope(discount.AppliesTo, ScopeContext{
		ProjectTypeKey:      in.ProjectTypeKey,
		SelectedFeatureKeys: in.SelectedFeatureKeys,
		ClientTypeKey:       in.ClientTypeKey,
	}) {
		if amount, ok := discountAmount(*discount, subtotal); ok {
			total = subtotal - amount
			if total < 0 {
				total = 0
			}
			applied = &AppliedDiscount{Type: discount.Type, Amount: discount.Amount}
		}
	}

	band := model.Band
	if band.Lower == 0 && band.Upper == 0 {
		band = DefaultBand
	}

	return Breakdown{
		BaseCost:        baseCost,
		PageCost:        pageCost,
		FeatureCosts:    featureCosts,
		Subtotal:        subtotal,
		DiscountApplied: applied,
		Total:           total,
		Range:           Range{Min: total * band.Lower, Max: total * band.Upper},
		Currency:        model.ReferenceCurrency,
	}, nil
}

// discountAmount resolves the monetary reduction for a discount. Unknown
// types and negative amounts are treated as no discount at all.
func discountAmount(d Discount, subtotal float64) (float64, bool) {
	if d.Amount < 0 {
		return 0, false
	}
	switch d.Type {
	case DiscountPercent:
		pct := d.Amount
		if pct > 100 {
			pct = 100
		}
		return subtotal * pct / 100, true
	case DiscountFixed:
		return d.Amount, true
	default:
		return 0, false
	}
}

// multiplier resolves one of the four multiplier slots. A missing group,
// missing option, or empty selection yields the identity so a partially
// filled form still produces a cost.
func (m PricingModel) multiplier(groupKey, optionKey string) float64 {
	if optionKey == "" {
		return 1
	}
	for _, g := range m.MultiplierGroups {
		if g.Key != groupKey {
			continue
		}
		for _, o := range g.Options {
			if o.Key == optionKey && o.Multiplier > 0 {
				return o.Multiplier
			}
		}
	}
	return 1
}
