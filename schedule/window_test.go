package schedule

import (
	"testing"
	"time"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("US/Eastern")
	if err != nil {
		t.Fatalf("LoadLocation(US/Eastern) failed: %v", err)
	}
	return loc
}

func TestParseClock(t *testing.T) {
	fallback := Clock{Hour: 12, Minute: 30}

	tests := []struct {
		input string
		want  Clock
	}{
		{"13:00", Clock{Hour: 13, Minute: 0}},
		{" 09:15 ", Clock{Hour: 9, Minute: 15}},
		{"25:00", fallback},
		{"12:75", fallback},
		{"noon", fallback},
		{"", fallback},
	}

	for _, tt := range tests {
		if got := ParseClock(tt.input, fallback); got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBuildWindow_BareDates(t *testing.T) {
	loc := eastern(t)
	checkin := Clock{Hour: 12, Minute: 30}
	checkout := Clock{Hour: 13, Minute: 0}

	window, err := BuildWindow("2026-03-01", "2026-03-04", loc, checkin, checkout)
	if err != nil {
		t.Fatalf("BuildWindow() error = %v", err)
	}

	wantStart := time.Date(2026, 3, 1, 12, 30, 0, 0, loc)
	wantEnd := time.Date(2026, 3, 4, 13, 0, 0, 0, loc)

	if !window.Start.Equal(wantStart) {
		t.Errorf("window.Start = %v, want %v", window.Start, wantStart)
	}
	if !window.End.Equal(wantEnd) {
		t.Errorf("window.End = %v, want %v", window.End, wantEnd)
	}

	// March 1 is still EST
	if _, offset := window.Start.Zone(); offset != -5*3600 {
		t.Errorf("window.Start offset = %d, want %d", offset, -5*3600)
	}
}

func TestBuildWindow_DiscardsSourceTimeOfDay(t *testing.T) {
	loc := eastern(t)

	window, err := BuildWindow("2026-03-01T18:45:00Z", "2026-03-04T02:00:00", loc, Clock{12, 30}, Clock{13, 0})
	if err != nil {
		t.Fatalf("BuildWindow() error = %v", err)
	}

	wantStart := time.Date(2026, 3, 1, 12, 30, 0, 0, loc)
	if !window.Start.Equal(wantStart) {
		t.Errorf("window.Start = %v, want %v", window.Start, wantStart)
	}
	wantEnd := time.Date(2026, 3, 4, 13, 0, 0, 0, loc)
	if !window.End.Equal(wantEnd) {
		t.Errorf("window.End = %v, want %v", window.End, wantEnd)
	}
}

func TestBuildWindow_InvalidDate(t *testing.T) {
	loc := eastern(t)

	if _, err := BuildWindow("", "2026-03-04", loc, Clock{12, 30}, Clock{13, 0}); err != ErrInvalidDate {
		t.Errorf("BuildWindow(empty arrival) error = %v, want ErrInvalidDate", err)
	}
	if _, err := BuildWindow("not-a-date", "2026-03-04", loc, Clock{12, 30}, Clock{13, 0}); err != ErrInvalidDate {
		t.Errorf("BuildWindow(garbage arrival) error = %v, want ErrInvalidDate", err)
	}
}

func TestBuildWindow_InvalidWindow(t *testing.T) {
	loc := eastern(t)

	// same day: checkout clock is after checkin clock, so this is valid
	if _, err := BuildWindow("2026-03-01", "2026-03-01", loc, Clock{12, 30}, Clock{13, 0}); err != nil {
		t.Errorf("BuildWindow(same day) error = %v, want nil", err)
	}

	if _, err := BuildWindow("2026-03-04", "2026-03-01", loc, Clock{12, 30}, Clock{13, 0}); err != ErrInvalidWindow {
		t.Errorf("BuildWindow(reversed) error = %v, want ErrInvalidWindow", err)
	}
}

func TestWithinTolerance(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tolerance := 15 * time.Minute

	if !WithinTolerance(base, base.Add(5*time.Minute), tolerance) {
		t.Error("WithinTolerance(5m apart, 15m) = false, want true")
	}
	if !WithinTolerance(base.Add(5*time.Minute), base, tolerance) {
		t.Error("WithinTolerance should be symmetric")
	}
	if WithinTolerance(base, base.Add(20*time.Minute), tolerance) {
		t.Error("WithinTolerance(20m apart, 15m) = true, want false")
	}
}

func TestWindowMatchesWithin(t *testing.T) {
	base := Window{
		Start: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC),
	}
	tolerance := 15 * time.Minute

	shifted := Window{Start: base.Start.Add(5 * time.Minute), End: base.End.Add(-5 * time.Minute)}
	if !base.MatchesWithin(shifted, tolerance) {
		t.Error("MatchesWithin(both edges 5m off) = false, want true")
	}

	// one edge within, the other outside: both edges must match
	endOff := Window{Start: base.Start, End: base.End.Add(20 * time.Minute)}
	if base.MatchesWithin(endOff, tolerance) {
		t.Error("MatchesWithin(end 20m off) = true, want false")
	}
}

func TestParseRemoteTime(t *testing.T) {
	got, ok := ParseRemoteTime("2026-03-01T17:30:00Z")
	if !ok {
		t.Fatal("ParseRemoteTime(RFC3339) not ok")
	}
	want := time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseRemoteTime() = %v, want %v", got, want)
	}

	if _, ok := ParseRemoteTime(""); ok {
		t.Error("ParseRemoteTime(empty) ok = true, want false")
	}
	if _, ok := ParseRemoteTime("bogus"); ok {
		t.Error("ParseRemoteTime(bogus) ok = true, want false")
	}
}
