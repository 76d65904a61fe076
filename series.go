package stash

import (
	"encoding/json"
	"iter"
	"slices"
	"sort"
)

// Series stores a chronological series of amounts, each associated with a
// specific date. Dates are unique and the series is always sorted.
type Series struct {
	days   []Date
	values []Money
}

// Len returns the number of points in the series.
func (s *Series) Len() int { return len(s.days) }

// Latest returns the latest date and value in the series.
// If the series is empty, it returns zero values.
func (s *Series) Latest() (day Date, value Money) {
	last := len(s.days) - 1
	if last < 0 {
		return Date{}, Money{}
	}
	return s.days[last], s.values[last]
}

// chronological is a private implementation to keep the series sorted.
type chronological struct{ *Series }

func (s chronological) Len() int           { return len(s.days) }
func (s chronological) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }
func (s chronological) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

func (s *Series) sort() { sort.Sort(chronological{s}) }

// Append adds a point to the series. An existing value at that date is overwritten.
func (s *Series) Append(on Date, v Money) *Series {
	if i := slices.Index(s.days, on); i >= 0 {
		s.values[i] = v
		return s
	}
	s.days, s.values = append(s.days, on), append(s.values, v)
	s.sort()
	return s
}

// AppendAdd adds a point to the series. An existing value at that date is added to.
func (s *Series) AppendAdd(on Date, v Money) *Series {
	if i := slices.Index(s.days, on); i >= 0 {
		s.values[i] = s.values[i].Add(v)
		return s
	}
	s.days, s.values = append(s.days, on), append(s.values, v)
	s.sort()
	return s
}

// Get returns the value at 'day' and true, or a zero value and false.
func (s *Series) Get(day Date) (Money, bool) {
	if i := slices.Index(s.days, day); i >= 0 {
		return s.values[i], true
	}
	return Money{}, false
}

// Values returns an iterator over all date/value pairs, in chronological order.
func (s *Series) Values() iter.Seq2[Date, Money] {
	return func(yield func(Date, Money) bool) {
		for i, on := range s.days {
			if !yield(on, s.values[i]) {
				return
			}
		}
	}
}

// Since returns the sub-series of points on or after the given date.
func (s *Series) Since(from Date) *Series {
	out := &Series{}
	for i, on := range s.days {
		if on.Before(from) {
			continue
		}
		out.days = append(out.days, on)
		out.values = append(out.values, s.values[i])
	}
	return out
}

// Weekly returns the series sampled at weekly granularity, keeping the last
// point of each ISO week. The final point of the series is always kept.
func (s *Series) Weekly() *Series {
	out := &Series{}
	for i, on := range s.days {
		if i+1 < len(s.days) {
			y, w := on.ISOWeek()
			ny, nw := s.days[i+1].ISOWeek()
			if y == ny && w == nw {
				continue
			}
		}
		out.days = append(out.days, on)
		out.values = append(out.values, s.values[i])
	}
	return out
}

// seriesPoint is the persisted and served shape of one point.
type seriesPoint struct {
	Date  Date  `json:"date"`
	Value Money `json:"value"`
}

// MarshalJSON implements the json.Marshaler interface for Series.
func (s Series) MarshalJSON() ([]byte, error) {
	points := make([]seriesPoint, 0, len(s.days))
	for i, on := range s.days {
		points = append(points, seriesPoint{Date: on, Value: s.values[i]})
	}
	return json.Marshal(points)
}

// UnmarshalJSON implements the json.Unmarshaler interface for Series.
func (s *Series) UnmarshalJSON(data []byte) error {
	var points []seriesPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return err
	}
	s.days, s.values = nil, nil
	for _, p := range points {
		s.Append(p.Date, p.Value)
	}
	return nil
}
