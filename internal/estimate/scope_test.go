package estimate

import "testing"

func TestMatchesScope_EmptyScopeMatchesEverything(t *testing.T) {
	ctx := ScopeContext{ProjectTypeKey: "website", ClientTypeKey: "startup"}
	if !MatchesScope(Scope{}, ctx) {
		t.Fatalf("empty scope should match any context")
	}
	if !MatchesScope(Scope{}, ScopeContext{}) {
		t.Fatalf("empty scope should match empty context")
	}
}

func TestMatchesScope_ProjectTypeAllowList(t *testing.T) {
	scope := Scope{ProjectTypes: []string{"website", "landing"}}

	if !MatchesScope(scope, ScopeContext{ProjectTypeKey: "website"}) {
		t.Fatalf("listed project type should match")
	}
	if MatchesScope(scope, ScopeContext{ProjectTypeKey: "ecommerce"}) {
		t.Fatalf("unlisted project type should not match")
	}
	if MatchesScope(scope, ScopeContext{}) {
		t.Fatalf("empty selection should not satisfy a non-empty allow-list")
	}
}

func TestMatchesScope_AnySelectedFeatureQualifies(t *testing.T) {
	scope := Scope{Features: []string{"cms"}}

	ctx := ScopeContext{SelectedFeatureKeys: []string{"seo", "cms", "analytics"}}
	if !MatchesScope(scope, ctx) {
		t.Fatalf("one qualifying feature among the selection should be enough")
	}

	ctx = ScopeContext{SelectedFeatureKeys: []string{"seo", "analytics"}}
	if MatchesScope(scope, ctx) {
		t.Fatalf("no qualifying feature should fail the scope")
	}

	if MatchesScope(scope, ScopeContext{}) {
		t.Fatalf("no selected features should fail a feature-restricted scope")
	}
}

func TestMatchesScope_ClientTypeAllowAndDeny(t *testing.T) {
	scope := Scope{ClientTypes: []string{"startup", "nonprofit"}}

	if !MatchesScope(scope, ScopeContext{ClientTypeKey: "nonprofit"}) {
		t.Fatalf("listed client type should match")
	}
	if MatchesScope(scope, ScopeContext{ClientTypeKey: "enterprise"}) {
		t.Fatalf("unlisted client type should not match")
	}

	deny := Scope{ExcludeClientTypes: []string{"enterprise"}}
	if MatchesScope(deny, ScopeContext{ClientTypeKey: "enterprise"}) {
		t.Fatalf("excluded client type should not match")
	}
	if !MatchesScope(deny, ScopeContext{ClientTypeKey: "startup"}) {
		t.Fatalf("non-excluded client type should match")
	}
}

func TestMatchesScope_ExclusionWinsOverAllowList(t *testing.T) {
	scope := Scope{
		ClientTypes:        []string{"startup"},
		ExcludeClientTypes: []string{"startup"},
	}

	if MatchesScope(scope, ScopeContext{ClientTypeKey: "startup"}) {
		t.Fatalf("a client type present in both lists must be rejected")
	}
}

func TestMatchesScope_AllDimensionsMustHold(t *testing.T) {
	scope := Scope{
		ProjectTypes: []string{"website"},
		Features:     []string{"cms"},
		ClientTypes:  []string{"startup"},
	}

	full := ScopeContext{
		ProjectTypeKey:      "website",
		SelectedFeatureKeys: []string{"cms"},
		ClientTypeKey:       "startup",
	}
	if !MatchesScope(scope, full) {
		t.Fatalf("context satisfying every dimension should match")
	}

	wrongClient := full
	wrongClient.ClientTypeKey = "agency"
	if MatchesScope(scope, wrongClient) {
		t.Fatalf("one failing dimension should reject the scope")
	}
}
