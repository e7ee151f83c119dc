package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatch_IsOutcome(t *testing.T) {
	m := Match{Team1: "Madrid", Team2: "Barcelona"}

	tests := []struct {
		outcome  string
		expected bool
	}{
		{"Madrid", true},
		{"Barcelona", true},
		{Draw, true},
		{"Valencia", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.IsOutcome(tt.outcome); got != tt.expected {
			t.Errorf("IsOutcome(%q) = %v, expected %v", tt.outcome, got, tt.expected)
		}
	}
}

func TestMatch_Pool(t *testing.T) {
	m := Match{}
	if !m.Pool().IsZero() {
		t.Errorf("expected empty pool, got %s", m.Pool())
	}

	m.Bets = []Bet{
		{Amount: decimal.NewFromInt(200)},
		{Amount: decimal.RequireFromString("50.5")},
	}
	if !m.Pool().Equal(decimal.RequireFromString("250.5")) {
		t.Errorf("expected pool 250.5, got %s", m.Pool())
	}
	if m.Settled() {
		t.Error("match without result reported settled")
	}
	m.Result = Draw
	if !m.Settled() {
		t.Error("match with result reported open")
	}
}
