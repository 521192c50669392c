package maintenance

import (
	"strconv"
	"strings"
	"time"
)

const (
	// CalendarLayout is the bare day format accepted from clients.
	CalendarLayout = "2006-01-02"
	// TimestampLayout serializes range bounds with millisecond precision and offset.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// RangeError is a user-facing validation failure on a date window.
type RangeError struct {
	Title  string
	Detail string
}

func (e *RangeError) Error() string {
	return e.Title + ": " + e.Detail
}

var (
	ErrRangeMissing = &RangeError{
		Title:  "Selecciona el rango",
		Detail: "Debes indicar fecha inicial y final para generar el resumen.",
	}
	ErrRangeUnparsable = &RangeError{
		Title:  "Fechas inválidas",
		Detail: "Verifica los valores seleccionados e intenta nuevamente.",
	}
	ErrRangeOrder = &RangeError{
		Title:  "Rango incorrecto",
		Detail: "La fecha inicial no puede ser mayor que la final.",
	}
)

// DateRange is an inclusive whole-day window.
type DateRange struct {
	Desde string    `json:"desde"`
	Hasta string    `json:"hasta"`
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// Contains reports whether t falls inside the window, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// NormalizeDateRange clamps desde to the start of its day and hasta to the last
// millisecond of its day, both in loc. It returns false when either input does
// not parse or desde falls after hasta.
func NormalizeDateRange(desde, hasta string, loc *time.Location) (*DateRange, bool) {
	rng, err := ValidateDateRange(desde, hasta, loc)
	if err != nil {
		return nil, false
	}
	return rng, true
}

// ValidateDateRange is NormalizeDateRange with the failure reason attached.
func ValidateDateRange(desde, hasta string, loc *time.Location) (*DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	if strings.TrimSpace(desde) == "" || strings.TrimSpace(hasta) == "" {
		return nil, ErrRangeMissing
	}
	start, ok := ParseCalendarDay(desde, loc)
	if !ok {
		return nil, ErrRangeUnparsable
	}
	end, ok := ParseCalendarDay(hasta, loc)
	if !ok {
		return nil, ErrRangeUnparsable
	}
	if start.After(end) {
		return nil, ErrRangeOrder
	}
	end = EndOfDay(end, loc)
	return &DateRange{
		Desde: start.Format(TimestampLayout),
		Hasta: end.Format(TimestampLayout),
		Start: start,
		End:   end,
	}, nil
}

// ParseCalendarDay reads a date and returns midnight of that calendar day in loc.
// Bare YYYY-MM-DD input is decomposed by hand so the day never shifts with the
// zone. Timestamps are converted to loc before the day is taken.
func ParseCalendarDay(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if len(value) == len(CalendarLayout) {
		return parseYMD(value, loc)
	}
	t, ok := ParseTimestamp(value, loc)
	if !ok {
		return time.Time{}, false
	}
	return StartOfDay(t, loc), true
}

// ParseTimestamp accepts RFC 3339 values and zone-less local date-times.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	if len(value) == len(CalendarLayout) {
		return parseYMD(value, loc)
	}
	return time.Time{}, false
}

// StartOfDay truncates t to 00:00:00.000 of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay moves t to 23:59:59.999 of its calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// CurrentWeek returns the last seven calendar days ending on now, as YYYY-MM-DD.
func CurrentWeek(now time.Time, loc *time.Location) (desde, hasta string) {
	if loc == nil {
		loc = time.Local
	}
	end := StartOfDay(now, loc)
	start := end.AddDate(0, 0, -6)
	return start.Format(CalendarLayout), end.Format(CalendarLayout)
}

func parseYMD(value string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
