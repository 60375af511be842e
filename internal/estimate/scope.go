package estimate

// Scope holds a discount's eligibility rules. Empty lists impose no
// constraint on their dimension.
type Scope struct {
	ProjectTypes       []string `json:"project_types,omitempty"`
	Features           []string `json:"features,omitempty"`
	ClientTypes        []string `json:"client_types,omitempty"`
	ExcludeClientTypes []string `json:"exclude_client_types,omitempty"`
}

// ScopeContext is the slice of calculator inputs a scope is checked against.
type ScopeContext struct {
	ProjectTypeKey      string
	SelectedFeatureKeys []string
	ClientTypeKey       string
}

// MatchesScope reports whether a discount's rules accept the given
// configuration. An exclusion always wins over the client-type allow-list.
// Feature matching is permissive: one qualifying selected feature is enough.
func MatchesScope(s Scope, ctx ScopeContext) bool {
	if contains(s.ExcludeClientTypes, ctx.ClientTypeKey) {
		return false
	}
	if len(s.ProjectTypes) > 0 && !contains(s.ProjectTypes, ctx.ProjectTypeKey) {
		return false
	}
	if len(s.Features) > 0 && !containsAny(s.Features, ctx.SelectedFeatureKeys) {
		return false
	}
	if len(s.ClientTypes) > 0 && !contains(s.ClientTypes, ctx.ClientTypeKey) {
		return false
	}
	return true
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func containsAny(list, values []string) bool {
	for _, v := range values {
		if contains(list, v) {
			return true
		}
	}
	return false
}
