package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{" 7 ", 700, true},
		{"0.005", 1, true},  // half-up on the third decimal
		{"12.344", 1234, true},
		{"12.345", 1235, true},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		m, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Errorf("ParseAmount(%q): unexpected error %v", tc.in, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("ParseAmount(%q): expected error, got %d cents", tc.in, m.Cents)
			}
			continue
		}
		if m.Cents != tc.cents {
			t.Errorf("ParseAmount(%q) = %d cents, want %d", tc.in, m.Cents, tc.cents)
		}
	}
}

func TestParseBudgetAmountAllowsZero(t *testing.T) {
	m, err := ParseBudgetAmount("0")
	if err != nil {
		t.Fatalf("expected zero budget to parse, got %v", err)
	}
	if m.Cents != 0 {
		t.Fatalf("expected 0 cents, got %d", m.Cents)
	}
	if _, err := ParseBudgetAmount("-1"); err == nil {
		t.Fatal("expected error for negative budget")
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	cases := []struct {
		cents int64
		json  string
	}{
		{1234, "12.34"},
		{1200, "12"},
		{5, "0.05"},
		{0, "0"},
	}
	for _, tc := range cases {
		got, err := json.Marshal(Money{Cents: tc.cents})
		if err != nil {
			t.Fatalf("marshal %d: %v", tc.cents, err)
		}
		if string(got) != tc.json {
			t.Errorf("marshal %d = %s, want %s", tc.cents, got, tc.json)
		}
		var back Money
		if err := json.Unmarshal(got, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", got, err)
		}
		if back.Cents != tc.cents {
			t.Errorf("round trip %d -> %d", tc.cents, back.Cents)
		}
	}
}

func TestMoneyUnmarshalTolerance(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"19.99"`), &m); err != nil {
		t.Fatalf("quoted number should parse: %v", err)
	}
	if m.Cents != 1999 {
		t.Fatalf("expected 1999 cents, got %d", m.Cents)
	}
	if err := json.Unmarshal([]byte(`{"a":1}`), &m); err == nil {
		t.Fatal("expected error for object payload")
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 1234}).String(); got != "12.34" {
		t.Errorf("String() = %q, want 12.34", got)
	}
	if got := (Money{Cents: 1200}).String(); got != "12.00" {
		t.Errorf("String() = %q, want 12.00", got)
	}
}
