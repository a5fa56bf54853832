package domain

import (
	"fmt"
	"strconv"
)

// Period is a calendar year-month, written YYYYMM.
type Period struct {
	Year  int
	Month int
}

// ParsePeriod parses a six digit YYYYMM value.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 6 {
		return Period{}, &InvalidPeriodError{Value: s, Reason: "expected YYYYMM"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Period{}, &InvalidPeriodError{Value: s, Reason: "expected YYYYMM"}
		}
	}

	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[4:])
	if year < 1 {
		return Period{}, &InvalidPeriodError{Value: s, Reason: "year out of range"}
	}
	if month < 1 || month > 12 {
		return Period{}, &InvalidPeriodError{Value: s, Reason: "month out of range"}
	}
	return Period{Year: year, Month: month}, nil
}

// ParseRange parses both bounds and checks start <= end.
func ParseRange(start, end string) (Period, Period, error) {
	from, err := ParsePeriod(start)
	if err != nil {
		return Period{}, Period{}, err
	}
	to, err := ParsePeriod(end)
	if err != nil {
		return Period{}, Period{}, err
	}
	if to.Before(from) {
		return Period{}, Period{}, &InvalidPeriodError{
			Value:  fmt.Sprintf("%s-%s", start, end),
			Reason: "start period is after end period",
		}
	}
	return from, to, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Months lists every period from start to end, both inclusive.
func Months(start, end Period) []Period {
	var months []Period
	for p := start; !end.Before(p); p = p.Next() {
		months = append(months, p)
	}
	return months
}
