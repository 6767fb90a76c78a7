package formula

import "testing"

func TestNormalize_LowercasesAndUnderscores(t *testing.T) {
	got := Normalize("Number of Households Surveyed")
	if got != "number_of_households_surveyed" {
		t.Errorf("unexpected token: %q", got)
	}
}

func TestNormalize_CollapsesWhitespaceRuns(t *testing.T) {
	got := Normalize("  Child   Malnutrition \t Rate ")
	if got != "child_malnutrition_rate" {
		t.Errorf("unexpected token: %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	a := Normalize("Child Malnutrition Rate")
	b := Normalize("child_malnutrition_rate")
	if a != b || a != "child_malnutrition_rate" {
		t.Errorf("normalization not stable: %q vs %q", a, b)
	}
	if Normalize(a) != a {
		t.Errorf("normalize not idempotent: %q -> %q", a, Normalize(a))
	}
}

func TestNormalize_NumericLiteralPassesThrough(t *testing.T) {
	for _, lit := range []string{"42", "3.14", " 100 "} {
		got := Normalize(lit)
		if _, err := Parse(got); err != nil {
			t.Errorf("normalized literal %q does not parse: %v", lit, err)
		}
	}
	if Normalize("42") != "42" {
		t.Errorf("integer literal changed: %q", Normalize("42"))
	}
}
