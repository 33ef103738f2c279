package main

import (
	"strings"
	"testing"
)

func TestLedgerDBURL_FallsBackToDBURL(t *testing.T) {
	t.Setenv("LEDGER_DB_URL", "")
	t.Setenv("DB_URL", "postgres://legacy/ledger")
	if got := ledgerDBURL(); got != "postgres://legacy/ledger" {
		t.Fatalf("expected DB_URL fallback, got %q", got)
	}

	t.Setenv("LEDGER_DB_URL", " postgres://ledger/db ")
	if got := ledgerDBURL(); got != "postgres://ledger/db" {
		t.Fatalf("expected LEDGER_DB_URL, got %q", got)
	}
}

func TestDisablePreparedBinaryResult(t *testing.T) {
	in := "postgres://u:p@localhost:5432/ledger?sslmode=disable"
	if got := disablePreparedBinaryResult(in, false); got != in {
		t.Fatalf("expected unchanged url, got %q", got)
	}
	if got := disablePreparedBinaryResult(in, true); !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected flag appended, got %q", got)
	}
}

func TestParseArgs(t *testing.T) {
	if steps, err := parseSteps(nil); err != nil || steps != 1 {
		t.Fatalf("expected default of one step, got %d %v", steps, err)
	}
	if _, err := parseSteps([]string{"0"}); err == nil {
		t.Fatalf("expected error for zero steps")
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if target, err := parseTarget("1771862434"); err != nil || target != 1771862434 {
		t.Fatalf("unexpected target %d %v", target, err)
	}
}
