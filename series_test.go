package stash

import (
	"encoding/json"
	"testing"
)

func TestSeriesStaysSorted(t *testing.T) {
	s := &Series{}
	s.Append(MustParseDate("2024-03-01"), M(3))
	s.Append(MustParseDate("2024-01-01"), M(1))
	s.Append(MustParseDate("2024-02-01"), M(2))

	var prev Date
	for on := range s.Values() {
		if !prev.IsZero() && !prev.Before(on) {
			t.Fatalf("series out of order around %s", on)
		}
		prev = on
	}
	if day, value := s.Latest(); day != MustParseDate("2024-03-01") || !value.Equal(M(3)) {
		t.Errorf("Latest = %s %v, want the March point", day, value)
	}
}

func TestSeriesAppendOverwritesAppendAddAccumulates(t *testing.T) {
	on := MustParseDate("2024-01-01")
	s := &Series{}
	s.Append(on, M(1)).Append(on, M(5))
	if v, _ := s.Get(on); !v.Equal(M(5)) {
		t.Errorf("Append twice = %v, want the last value", v)
	}
	s.AppendAdd(on, M(2))
	if v, _ := s.Get(on); !v.Equal(M(7)) {
		t.Errorf("AppendAdd = %v, want the sum", v)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want a single point per date", s.Len())
	}
}

func TestSeriesSince(t *testing.T) {
	s := &Series{}
	for month := 1; month <= 6; month++ {
		s.Append(NewDate(2024, 1, 1).AddMonth(month-1), M(month))
	}
	trailing := s.Since(MustParseDate("2024-04-01"))
	if trailing.Len() != 3 {
		t.Fatalf("Since kept %d points, want 3", trailing.Len())
	}
	if _, ok := trailing.Get(MustParseDate("2024-03-01")); ok {
		t.Error("Since kept a point before the cutoff")
	}
}

func TestSeriesWeekly(t *testing.T) {
	s := &Series{}
	// Mon 2024-01-01 .. Sun 2024-01-14, daily.
	for i := 0; i < 14; i++ {
		s.Append(MustParseDate("2024-01-01").Add(i), M(i))
	}
	// A trailing mid-week point.
	s.Append(MustParseDate("2024-01-17"), M(99))

	weekly := s.Weekly()
	if weekly.Len() != 3 {
		t.Fatalf("Weekly kept %d points, want one per ISO week", weekly.Len())
	}
	if _, ok := weekly.Get(MustParseDate("2024-01-07")); !ok {
		t.Error("Weekly dropped the last point of the first week")
	}
	if day, value := weekly.Latest(); day != MustParseDate("2024-01-17") || !value.Equal(M(99)) {
		t.Error("Weekly must always keep the final point")
	}
}

func TestSeriesJSONRoundTrip(t *testing.T) {
	s := &Series{}
	s.Append(MustParseDate("2024-01-02"), M(10.5))
	s.Append(MustParseDate("2024-01-03"), M(11))

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Series
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Len() != 2 {
		t.Fatalf("round trip kept %d points, want 2", back.Len())
	}
	if v, _ := back.Get(MustParseDate("2024-01-02")); !v.Equal(M(10.5)) {
		t.Errorf("round trip value = %v, want $10.50", v)
	}
}
