// Package magic computes derived variables (ages, term lengths, gender flags)
// from other variables.
//
// Every function reads its inputs through a Values source, normally the
// variable context that is resolving the magic variable, so inputs are
// themselves resolved lazily and memoized. Functions are pure with respect to
// that source.
package magic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Values is the read side of a variable context.
type Values interface {
	Get(code string) (any, error)
}

// Func computes one magic variable.
type Func func(Values) (any, error)

// Magic variable codes.
const (
	CodeIsMale          = "isMale"
	CodeIsFemale        = "isFemale"
	CodeInsuredAgeIssue = "insured_age_issue"
	CodeInsuredAgeEnd   = "insured_age_end"
	CodeHolderAgeIssue  = "holder_age_issue"
	CodeHolderAgeEnd    = "holder_age_end"
	CodeTermMonths      = "TermMonths"
	CodeTermDays        = "TermDays"
)

// Input variable codes read by the built-in functions.
const (
	InputGender           = "gender"
	InputInsuredBirthDate = "insured_birthDate"
	InputHolderBirthDate  = "holder_birthDate"
	InputIssueDate        = "issueDate"
	InputStartDate        = "startDate"
	InputEndDate          = "endDate"
)

// Catalogue maps magic variable codes to functions.
type Catalogue struct {
	funcs map[string]Func
}

// Default returns a new catalogue holding the built-in functions.
func Default() *Catalogue {
	c := &Catalogue{funcs: make(map[string]Func)}

	c.Register(CodeIsMale, genderFlag("M"))
	c.Register(CodeIsFemale, genderFlag("F"))
	c.Register(CodeInsuredAgeIssue, ageBetween(InputInsuredBirthDate, InputIssueDate))
	c.Register(CodeInsuredAgeEnd, ageBetween(InputInsuredBirthDate, InputEndDate))
	c.Register(CodeHolderAgeIssue, ageBetween(InputHolderBirthDate, InputIssueDate))
	c.Register(CodeHolderAgeEnd, ageBetween(InputHolderBirthDate, InputEndDate))
	c.Register(CodeTermMonths, termMonths)
	c.Register(CodeTermDays, termDays)

	return c
}

// Register adds or replaces the function for code.
func (c *Catalogue) Register(code string, fn Func) {
	c.funcs[code] = fn
}

// Lookup returns the function for code.
func (c *Catalogue) Lookup(code string) (Func, bool) {
	if c == nil {
		return nil, false
	}
	fn, ok := c.funcs[code]
	return fn, ok
}

// Codes returns the registered codes, sorted.
func (c *Catalogue) Codes() []string {
	codes := make([]string, 0, len(c.funcs))
	for code := range c.funcs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func genderFlag(want string) Func {
	return func(v Values) (any, error) {
		gender, err := v.Get(InputGender)
		if err != nil {
			return nil, err
		}
		if s, ok := gender.(string); ok && s == want {
			return "X", nil
		}
		return "", nil
	}
}

func ageBetween(birthCode, refCode string) Func {
	return func(v Values) (any, error) {
		birth, err := dateValue(v, birthCode)
		if err != nil || birth == nil {
			return nil, err
		}
		ref, err := dateValue(v, refCode)
		if err != nil || ref == nil {
			return nil, err
		}
		return decimal.NewFromInt(int64(wholeYears(*birth, *ref))), nil
	}
}

func termMonths(v Values) (any, error) {
	start, end, err := termDates(v)
	if err != nil || start == nil || end == nil {
		return nil, err
	}
	// The end date is covered by the term.
	return decimal.NewFromInt(int64(totalMonths(*start, end.AddDate(0, 0, 1)))), nil
}

func termDays(v Values) (any, error) {
	start, end, err := termDates(v)
	if err != nil || start == nil || end == nil {
		return nil, err
	}
	return decimal.NewFromInt(epochDay(*end) - epochDay(*start)), nil
}

func termDates(v Values) (*time.Time, *time.Time, error) {
	start, err := dateValue(v, InputStartDate)
	if err != nil {
		return nil, nil, err
	}
	end, err := dateValue(v, InputEndDate)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// dateValue resolves code and parses it as a calendar date. Absent values
// yield a nil date without error.
func dateValue(v Values, code string) (*time.Time, error) {
	raw, err := v.Get(code)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	s := strings.TrimSpace(fmt.Sprint(raw))
	if s == "" {
		return nil, nil
	}

	d, err := ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", code, err)
	}
	return &d, nil
}

// ParseDate parses a zoned date-time (RFC 3339) or a bare calendar date and
// returns the calendar date at midnight UTC. A zoned value keeps the date as
// seen in its own zone.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// epochDay numbers a UTC-midnight date by days since 1970-01-01. Dates are
// counted without time.Duration, which cannot span more than 292 years.
func epochDay(d time.Time) int64 {
	return d.Unix() / 86400
}

// wholeYears counts completed years from birth to ref.
func wholeYears(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}

// totalMonths counts completed months from start to end.
func totalMonths(start, end time.Time) int {
	months := (end.Year()*12 + int(end.Month())) - (start.Year()*12 + int(start.Month()))
	days := end.Day() - start.Day()
	switch {
	case months > 0 && days < 0:
		months--
	case months < 0 && days > 0:
		months++
	}
	return months
}
