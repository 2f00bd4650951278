package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseEngagementRulesOverridesDefaults(t *testing.T) {
	rules, err := ParseEngagementRules([]byte(`
maxDaysInStage:
  New: 3
  Retargeted_Rehash: 21
dateDivisor: 5
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rules.MaxDaysFor("New"); got != 3 {
		t.Fatalf("expected New budget 3, got %d", got)
	}
	if got := rules.MaxDaysFor("Retargeted_Rehash"); got != 21 {
		t.Fatalf("expected Retargeted_Rehash budget 21, got %d", got)
	}
	if got := rules.MaxDaysFor("Aged_High_Priority"); got != 14 {
		t.Fatalf("expected default Aged_High_Priority budget 14, got %d", got)
	}
	if rules.DateDivisor != 5 {
		t.Fatalf("expected divisor 5, got %d", rules.DateDivisor)
	}
}

func TestParseEngagementRulesRejectsNegativeBudget(t *testing.T) {
	if _, err := ParseEngagementRules([]byte("maxDaysInStage:\n  New: -1\n")); err == nil {
		t.Fatal("expected error for negative budget")
	}
}

func TestLoadEngagementRulesMissingFileUsesDefaults(t *testing.T) {
	rules, err := LoadEngagementRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.DateDivisor != defaultDateDivisor {
		t.Fatalf("expected default divisor, got %d", rules.DateDivisor)
	}
}

func TestLoadEngagementRulesReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engagement.yaml")
	if err := os.WriteFile(path, []byte("dateDivisor: 2\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadEngagementRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.DateDivisor != 2 {
		t.Fatalf("expected divisor 2, got %d", rules.DateDivisor)
	}
	if rules.MaxDaysFor("New") != 7 {
		t.Fatalf("expected default New budget to survive, got %d", rules.MaxDaysFor("New"))
	}
}
