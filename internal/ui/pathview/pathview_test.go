package pathview

import (
	"strings"
	"testing"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/learnpath"
	"github.com/abhisek/sentrypath/internal/progress"
)

func TestRender_NoRole(t *testing.T) {
	out := Render(catalog.Default(), nil, progress.Defaults())
	if !strings.Contains(out, "No role selected") {
		t.Errorf("output = %q", out)
	}
}

func TestRender_Backend(t *testing.T) {
	cat := catalog.Default()
	p := progress.Defaults()
	p.Role = catalog.RoleBackend
	p.CompletedSteps = []string{"backend-error-tracking"}
	p.CompletedModules = []string{"backend-context", "sentry-fundamentals"}

	path := learnpath.Resolve(cat, p.Role, p.CompletedSteps)
	out := Render(cat, path, p)

	for _, want := range []string{
		cat.RoleName(catalog.RoleBackend),
		"1/6 steps",
		markCompleted + " 1. backend-error-tracking",
		markCurrent + " 2. backend-performance",
		markLocked + " 3. backend-tracing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_ModuleCounts(t *testing.T) {
	cat := catalog.Default()
	p := progress.Defaults()
	p.Role = catalog.RoleFrontend
	p.CompletedModules = []string{"sentry-fundamentals"}

	out := Render(cat, learnpath.Resolve(cat, p.Role, nil), p)
	if !strings.Contains(out, "(1/2 modules)") {
		t.Errorf("output missing module count:\n%s", out)
	}
}

func TestRenderRecommendation(t *testing.T) {
	out := RenderRecommendation(&learnpath.Recommendation{
		ModuleID:     "performance-monitoring",
		StepID:       "backend-performance",
		Priority:     2,
		Reasoning:    "Trace slow endpoints",
		TimeEstimate: "45 min",
	})
	for _, want := range []string{"Next: backend-performance", "Trace slow endpoints", "module performance-monitoring", "priority 2", "45 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if out := RenderRecommendation(nil); !strings.Contains(out, "Nothing left") {
		t.Errorf("nil recommendation = %q", out)
	}
}

func TestRenderStatus(t *testing.T) {
	cat := catalog.Default()
	p := progress.Defaults()
	out := RenderStatus(cat, p, false)
	if !strings.Contains(out, "local only") || !strings.Contains(out, "none") {
		t.Errorf("output = %q", out)
	}

	p.Role = catalog.RoleSRE
	p.OnboardingCompleted = true
	out = RenderStatus(cat, p, true)
	for _, want := range []string{"synced", cat.RoleName(catalog.RoleSRE), "done", "mixed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
