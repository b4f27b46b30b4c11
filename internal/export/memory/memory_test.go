package memory

import (
	"context"
	"testing"

	"tally/internal/core"
)

func TestAppendAndRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, core.Transaction{
		Kind:   core.KindIncome,
		Amount: core.Money{Cents: 2000},
		Wallet: "Household",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q, want mem:1", ref)
	}
	if got := len(s.Rows()); got != 1 {
		t.Fatalf("rows = %d, want 1", got)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), core.Transaction{Kind: "bogus"}); err == nil {
		t.Fatal("invalid transaction accepted")
	}
	if got := len(s.Rows()); got != 0 {
		t.Fatalf("rows = %d, want 0", got)
	}
}
