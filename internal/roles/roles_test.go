package roles

import (
	"errors"
	"testing"

	"opsboard/internal/apperrors"
)

func TestExactTitlesRoute(t *testing.T) {
	cases := map[string]string{
		"SUPER ADMIN":                  "/admin",
		"OWNER":                        "/owner",
		"OPRATOR FOKO":                 "/oprator-foko",
		"OPRATOR BATA RINGAN":          "/oprator-bata-ringan",
		"ADMIN BBM":                    "/admin-bbm",
		"KEPALA KOORDINATOR TEKNIK":    "/kepala-koordinator-teknik",
		"HELPER PRECAST & BATA RINGAN": "/helper-precast",
		"VIEWER":                       "/viewer",
	}

	for title, want := range cases {
		got, err := Resolve(title)
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error %v", title, err)
			continue
		}
		if got != want {
			t.Errorf("Resolve(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestContainmentRules(t *testing.T) {
	cases := map[string]string{
		"OPRATOR BP 1":               "/",
		"OPRATOR BP 2":               "/",
		"KEPALA MEKANIK PUSAT":       "/kepala-mekanik",
		"ADMIN LOGISTIK MATERIAL BP": "/admin-logistik-material",
		"PEKERJA BONGKAR SEMEN":      "/bongkar-semen",
		"HRD PUSAT":                  "/hrd-pusat",
		"HSE K3":                     "/hse-k3",
	}

	for title, want := range cases {
		got, err := Resolve(title)
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error %v", title, err)
			continue
		}
		if got != want {
			t.Errorf("Resolve(%q) = %q, want %q", title, got, want)
		}
	}
}

// The generic SOPIR containment rule sits ahead of the dedicated driver
// entries, so every SOPIR title lands on the generic driver view. Same
// for QC swallowing ADMIN QC. That shadowing is part of the rule set.
func TestRuleOrderShadowing(t *testing.T) {
	cases := map[string]string{
		"SOPIR TM":         "/sopir",
		"SOPIR OPRASIONAL": "/sopir",
		"SOPIR DUTRO":      "/sopir",
		"KEPALA SOPIR TM":  "/sopir",
		"ADMIN QC":         "/qc",
		"HELPER QC":        "/qc",
		"ADMIN BP GUDANG":  "/admin-bp",
	}

	for title, want := range cases {
		got, err := Resolve(title)
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error %v", title, err)
			continue
		}
		if got != want {
			t.Errorf("Resolve(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestCaseInsensitive(t *testing.T) {
	upper, err := Resolve("SOPIR TM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lower, err := Resolve("sopir tm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upper != lower {
		t.Errorf("case-insensitive mismatch: %q vs %q", upper, lower)
	}
}

func TestUnknownTitleIsUnauthorized(t *testing.T) {
	for _, title := range []string{"", "TUKANG KEBUN", "MANDOR", "staff gudang"} {
		_, err := Resolve(title)
		if !errors.Is(err, apperrors.ErrUnauthorized) {
			t.Errorf("Resolve(%q): expected ErrUnauthorized, got %v", title, err)
		}
	}
}

// Every rule in the table must be reachable under its own title except
// the entries the ordering deliberately shadows.
func TestEveryTableEntryResolves(t *testing.T) {
	for _, r := range Table {
		if _, err := Resolve(r.Title); err != nil {
			t.Errorf("Resolve(%q): unexpected error %v", r.Title, err)
		}
	}
}
