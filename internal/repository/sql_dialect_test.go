package repository

import (
	"strings"
	"testing"
)

func TestDigitsOnlyExprPostgres(t *testing.T) {
	got := digitsOnlyExprByDialect("postgres", "customer_phone")
	want := "regexp_replace(customer_phone, '[^0-9]', '', 'g')"
	if got != want {
		t.Fatalf("want %s got %s", want, got)
	}
}

func TestDigitsOnlyExprSQLite(t *testing.T) {
	got := digitsOnlyExprByDialect("sqlite", "customer_phone")
	if strings.Count(got, "REPLACE(") != len(phoneSeparators) {
		t.Fatalf("expected one REPLACE per separator, got %s", got)
	}
	if !strings.Contains(got, "REPLACE(customer_phone, ' ', '')") {
		t.Fatalf("innermost replace should wrap the column, got %s", got)
	}
}

func TestDigitsOnly(t *testing.T) {
	cases := map[string]string{
		"(303) 555-0142":  "3035550142",
		"+1 303.555.0142": "13035550142",
		"abc":             "",
		"":                "",
	}
	for in, want := range cases {
		if got := DigitsOnly(in); got != want {
			t.Fatalf("DigitsOnly(%q) = %q, want %q", in, got, want)
		}
	}
}
