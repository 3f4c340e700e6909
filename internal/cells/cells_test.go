package cells

import (
	"testing"
	"time"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"Empty string", "", KindEmpty},
		{"Whitespace only", "   ", KindEmpty},
		{"Plain text", "ACME S.L.", KindText},
		{"Integer", "1200", KindNumber},
		{"Decimal", "1200.50", KindNumber},
		{"Currency amount", "€1,200.50", KindNumber},
		{"ISO date", "2026-03-15", KindDate},
		{"Day-first date", "15/03/2026", KindDate},
		{"Padded value", "  42  ", KindNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.raw)
			if got.Kind != tt.want {
				t.Errorf("Coerce(%q).Kind = %v, want %v", tt.raw, got.Kind, tt.want)
			}
		})
	}
}

func TestCoercePreservesText(t *testing.T) {
	c := Coerce("  €1,200.50  ")
	if c.Text != "€1,200.50" {
		t.Errorf("Expected trimmed raw text to be preserved, got %q", c.Text)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{"Plain decimal", "1200.50", "1200.5", false},
		{"Thousands separator", "1,200,300.25", "1200300.25", false},
		{"Euro symbol", "€500", "500", false},
		{"Dollar symbol", "$500.10", "500.1", false},
		{"Negative", "-42.5", "-42.5", false},
		{"Empty", "", "", true},
		{"Not a number", "N/A", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseAmount(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{"ISO", "2026-03-15", "2026-03-15", false},
		{"Day first slash", "15/03/2026", "2026-03-15", false},
		{"Single digit slash", "5/3/2026", "2026-03-05", false},
		{"Day first dash", "15-03-2026", "2026-03-15", false},
		{"Datetime", "2026-03-15 10:30:00", "2026-03-15", false},
		{"Garbage", "soon", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDate(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestAsDateSerial(t *testing.T) {
	// Serial 45000 is 2023-03-15 in the 1900 date system.
	c := Coerce("45000")
	if c.Kind != KindNumber {
		t.Fatalf("Expected number cell, got %v", c.Kind)
	}
	got, err := c.AsDate()
	if err != nil {
		t.Fatalf("AsDate() error = %v", err)
	}
	if got.Format("2006-01-02") != "2023-03-15" {
		t.Errorf("AsDate() = %s, want 2023-03-15", got.Format("2006-01-02"))
	}
}

func TestAsDateRejectsImplausibleSerials(t *testing.T) {
	for _, raw := range []string{"1200.50", "99999"} {
		c := Coerce(raw)
		if _, err := c.AsDate(); err == nil {
			t.Errorf("Expected AsDate to reject %q as a date serial", raw)
		}
	}
}

func TestIsPast(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want bool
	}{
		{"Yesterday", today.AddDate(0, 0, -1), true},
		{"Today is not past", today, false},
		{"Today with time of day", today.Add(15 * time.Hour), false},
		{"Tomorrow", today.AddDate(0, 0, 1), false},
		{"Last month", today.AddDate(0, -1, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPast(tt.due, today); got != tt.want {
				t.Errorf("IsPast(%s) = %v, want %v", tt.due.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestOverdueAcrossLocations(t *testing.T) {
	// Parsed due dates carry UTC while the reference day carries the local
	// zone; only the calendar dates may decide overdue status.
	madrid := time.FixedZone("UTC+2", 2*60*60)
	bogota := time.FixedZone("UTC-5", -5*60*60)

	dueYesterday, err := ParseDate("2026-08-30")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, madrid)
	if !IsPast(dueYesterday, today) {
		t.Error("Expected a due date one day before an east-of-UTC today to be past")
	}
	if got := DaysPast(dueYesterday, today); got != 1 {
		t.Errorf("DaysPast() = %d, want 1", got)
	}

	dueToday, err := ParseDate("2026-08-31")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if IsPast(dueToday, time.Date(2026, 8, 31, 0, 0, 0, 0, bogota)) {
		t.Error("Expected a due date equal to a west-of-UTC today not to be past")
	}
}

func TestDaysPast(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"Yesterday", today.AddDate(0, 0, -1), 1},
		{"Today", today, 0},
		{"Future", today.AddDate(0, 0, 5), 0},
		{"Ten days ago", today.AddDate(0, 0, -10), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysPast(tt.due, today); got != tt.want {
				t.Errorf("DaysPast(%s) = %d, want %d", tt.due.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}
