package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CanonicalLayout is the only date format exchanged with tools and storage.
const CanonicalLayout = "2006-01-02"

// MaxStayNights bounds a single date range.
const MaxStayNights = 30

// Date is a calendar date with no time-of-day component. The zero value is
// "no date".
type Date struct {
	t time.Time
}

// NewDate returns the date only when y-m-d exists on the calendar
// (e.g. 2026-02-30 is rejected instead of normalized to March).
func NewDate(y int, m time.Month, d int) (Date, bool) {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return Date{}, false
	}
	return Date{t: t}, true
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a canonical YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	m := canonicalRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrValidation, s)
	}
	d, ok := dateFromParts(m[1], m[2], m[3])
	if !ok {
		return Date{}, fmt.Errorf("%w: %q is not a calendar date", ErrValidation, s)
	}
	return d, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// DaysUntil is the signed number of calendar days from d to o.
// Both dates sit at UTC midnight, so there is no DST drift.
func (d Date) DaysUntil(o Date) int {
	return int((o.t.Unix() - d.t.Unix()) / 86400)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(CanonicalLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is a validated stay: CheckOut > CheckIn and 1 <= Nights <= 30.
type DateRange struct {
	CheckIn  Date `json:"checkIn"`
	CheckOut Date `json:"checkOut"`
	Nights   int  `json:"nights"`
}

// DateResult is the outcome of ValidateDate.
type DateResult struct {
	Valid         bool   `json:"isValid"`
	Date          string `json:"date,omitempty"`
	IsPast        bool   `json:"isPast"`
	IsToday       bool   `json:"isToday"`
	IsFuture      bool   `json:"isFuture"`
	DaysFromToday int    `json:"daysFromToday"`
	Error         string `json:"error,omitempty"`

	parsed Date
}

// RangeResult is the outcome of ValidateDateRange. Range is set only when
// Valid is true.
type RangeResult struct {
	Valid    bool       `json:"isValid"`
	CheckIn  string     `json:"checkIn,omitempty"`
	CheckOut string     `json:"checkOut,omitempty"`
	Nights   int        `json:"nights,omitempty"`
	Error    string     `json:"error,omitempty"`
	Range    *DateRange `json:"-"`
}

// DateValidator parses and validates dates relative to "today" in a fixed
// location.
type DateValidator struct {
	Now      func() time.Time
	Location *time.Location
}

// NewDateValidator creates a validator anchored to the wall clock in loc
// (UTC when loc is nil).
func NewDateValidator(loc *time.Location) *DateValidator {
	if loc == nil {
		loc = time.UTC
	}
	return &DateValidator{Now: time.Now, Location: loc}
}

// Today is the current local calendar date.
func (v *DateValidator) Today() Date {
	loc := v.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(v.Now().In(loc))
}

var (
	canonicalRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timestampRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[t ]\d{2}:\d{2}`)
	slashRe     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoSlashRe  = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	inDaysRe    = regexp.MustCompile(`^in (\d{1,3}) days?$`)
	monthDayRe  = regexp.MustCompile(`^([a-z]+)\.? (\d{1,2})(?:st|nd|rd|th)?(?:,? (\d{4}))?$`)
	dayMonthRe  = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)? (?:of )?([a-z]+)\.?,?(?: (\d{4}))?$`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Parse turns user or model input into a calendar date.
func (v *DateValidator) Parse(input string) (Date, bool) {
	s := strings.ToLower(spacesRe.ReplaceAllString(strings.TrimSpace(input), " "))
	if s == "" {
		return Date{}, false
	}
	today := v.Today()

	switch s {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDays(1), true
	case "next week":
		return today.AddDays(7), true
	}

	if m := canonicalRe.FindStringSubmatch(s); m != nil {
		return dateFromParts(m[1], m[2], m[3])
	}
	if m := timestampRe.FindStringSubmatch(s); m != nil {
		return dateFromParts(m[1], m[2], m[3])
	}
	if m := isoSlashRe.FindStringSubmatch(s); m != nil {
		return dateFromParts(m[1], m[2], m[3])
	}
	if m := slashRe.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		month, day := first, second
		if first > 12 && second <= 12 {
			month, day = second, first
		}
		return NewDate(year, time.Month(month), day)
	}
	if m := inDaysRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDays(n), true
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[m[1]]; ok {
			day, _ := strconv.Atoi(m[2])
			return v.monthDay(today, month, day, m[3])
		}
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			return v.monthDay(today, month, day, m[3])
		}
	}
	return Date{}, false
}

// monthDay builds a date from a month name; a yearless date that already
// passed this year rolls to next year.
func (v *DateValidator) monthDay(today Date, month time.Month, day int, year string) (Date, bool) {
	if year != "" {
		y, _ := strconv.Atoi(year)
		return NewDate(y, month, day)
	}
	d, ok := NewDate(today.t.Year(), month, day)
	if !ok || d.Before(today) {
		return NewDate(today.t.Year()+1, month, day)
	}
	return d, true
}

// ParseToCanonical returns the YYYY-MM-DD form of input, or false.
func (v *DateValidator) ParseToCanonical(input string) (string, bool) {
	d, ok := v.Parse(input)
	if !ok {
		return "", false
	}
	return d.String(), true
}

// ValidateDate parses input and classifies it against today.
func (v *DateValidator) ValidateDate(input string) DateResult {
	d, ok := v.Parse(input)
	if !ok {
		return DateResult{Error: fmt.Sprintf("Invalid date format: %q. Use YYYY-MM-DD.", input)}
	}
	offset := v.Today().DaysUntil(d)
	return DateResult{
		Valid:         true,
		Date:          d.String(),
		IsPast:        offset < 0,
		IsToday:       offset == 0,
		IsFuture:      offset > 0,
		DaysFromToday: offset,
		parsed:        d,
	}
}

// ValidateDateRange checks a stay. Rules are evaluated in order and the
// first failure is the only error reported.
func (v *DateValidator) ValidateDateRange(checkIn, checkOut string) RangeResult {
	in := v.ValidateDate(checkIn)
	if !in.Valid {
		return RangeResult{Error: fmt.Sprintf("Invalid check-in date: %q", checkIn)}
	}
	out := v.ValidateDate(checkOut)
	if !out.Valid {
		return RangeResult{CheckIn: in.Date, Error: fmt.Sprintf("Invalid check-out date: %q", checkOut)}
	}
	res := RangeResult{CheckIn: in.Date, CheckOut: out.Date}
	if in.IsPast {
		res.Error = fmt.Sprintf("Check-in date %s cannot be in the past", in.Date)
		return res
	}
	nights := in.parsed.DaysUntil(out.parsed)
	if nights <= 0 {
		res.Error = "Check-out date must be after check-in date"
		return res
	}
	if nights > MaxStayNights {
		res.Error = fmt.Sprintf("Stay of %d nights exceeds the maximum of %d nights", nights, MaxStayNights)
		return res
	}
	res.Valid = true
	res.Nights = nights
	res.Range = &DateRange{CheckIn: in.parsed, CheckOut: out.parsed, Nights: nights}
	return res
}

// StayRange is ValidateDateRange for callers that want an error.
func (v *DateValidator) StayRange(checkIn, checkOut string) (DateRange, error) {
	res := v.ValidateDateRange(checkIn, checkOut)
	if !res.Valid {
		return DateRange{}, fmt.Errorf("%w: %s", ErrValidation, res.Error)
	}
	return *res.Range, nil
}

func dateFromParts(y, m, d string) (Date, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	return NewDate(year, time.Month(month), day)
}
