// Package timeline turns the per-file temporal ranges of a dataset into a
// single extent and checks that the files tile it without holes.
package timeline

import (
	"slices"
	"strconv"
	"time"
)

const dayLayout = "20060102"

// Period is an inclusive pair of YYYYMMDD dates covered by one file.
type Period struct {
	From string
	To   string
}

// Extent summarises a set of periods. Complete is nil when it could not
// be determined (no periods, or a date that does not parse).
type Extent struct {
	From     string
	To       string
	Complete *bool
}

// Periods converts half-open ranges to inclusive day periods. Nil
// ranges are skipped. Monthly bounds (YYYYMM) expand to the first day of
// the lower month and the last day of the upper month.
func Periods(ranges []*Range) []Period {
	periods := make([]Period, 0, len(ranges))
	for _, r := range ranges {
		if r == nil {
			continue
		}
		lower := strconv.FormatInt(r.Lower, 10)
		upper := lastIncluded(r.Upper)
		if len(lower) == 6 {
			lower += "01"
			upper += lastDayOfMonth(upper)
		}
		periods = append(periods, Period{From: lower, To: upper})
	}
	return periods
}

// lastIncluded steps back from an exclusive upper bound. A bound that is
// a real date moves back one calendar day; anything else, such as the
// canonical [20050101,20050132) form or a YYYYMM bound, moves back by one.
func lastIncluded(upper int64) string {
	s := strconv.FormatInt(upper, 10)
	if len(s) == len(dayLayout) {
		if d, err := time.Parse(dayLayout, s); err == nil {
			return d.AddDate(0, 0, -1).Format(dayLayout)
		}
	}
	return strconv.FormatInt(upper-1, 10)
}

func lastDayOfMonth(yyyymm string) string {
	if len(yyyymm) != 6 {
		return ""
	}
	year, err := strconv.Atoi(yyyymm[:4])
	if err != nil {
		return ""
	}
	month, err := strconv.Atoi(yyyymm[4:])
	if err != nil || month < 1 || month > 12 {
		return ""
	}
	// day 0 of the following month is the last day of this one
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return strconv.Itoa(last.Day())
}

// Bounds returns the earliest start and latest end over periods. ok is
// false when periods is empty or any date is not numeric.
func Bounds(periods []Period) (from, to string, ok bool) {
	if len(periods) == 0 {
		return "", "", false
	}
	var lower, upper int64
	for i, p := range periods {
		lo, err := strconv.ParseInt(p.From, 10, 64)
		if err != nil {
			return "", "", false
		}
		hi, err := strconv.ParseInt(p.To, 10, 64)
		if err != nil {
			return "", "", false
		}
		if i == 0 || lo < lower {
			lower = lo
		}
		if i == 0 || hi > upper {
			upper = hi
		}
	}
	return strconv.FormatInt(lower, 10), strconv.FormatInt(upper, 10), true
}

// Contiguous reports whether the sorted periods start at from and each
// begins the day after the previous one ends. Gaps and overlaps give
// false; an unparsable date or empty input gives nil.
func Contiguous(periods []Period, from string) *bool {
	if len(periods) == 0 {
		return nil
	}
	sorted := slices.Clone(periods)
	slices.SortFunc(sorted, func(a, b Period) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		switch {
		case a.To < b.To:
			return -1
		case a.To > b.To:
			return 1
		}
		return 0
	})

	next := from
	for _, p := range sorted {
		if p.From != next {
			return boolPtr(false)
		}
		end, err := time.Parse(dayLayout, p.To)
		if err != nil {
			return nil
		}
		next = end.AddDate(0, 0, 1).Format(dayLayout)
	}
	return boolPtr(true)
}

// Assemble merges periods into one extent.
func Assemble(periods []Period) Extent {
	from, to, ok := Bounds(periods)
	if !ok {
		return Extent{}
	}
	return Extent{From: from, To: to, Complete: Contiguous(periods, from)}
}

// AssembleRanges is Periods followed by Assemble.
func AssembleRanges(ranges []*Range) Extent {
	return Assemble(Periods(ranges))
}

func boolPtr(b bool) *bool {
	return &b
}
