package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Historical dates come back from the model as Chinese-era expressions like
// "前206年", "-206-12", "约25年", or "前206年冬". ParseDateKey turns them into
// a single sortable float: BCE years are negative, the month contributes a
// two-decimal fraction, and unparseable strings land in a reserved band past
// every real date so they sort last but keep a stable relative order.

var (
	yearSuffixRe  = regexp.MustCompile(`(\d+)年`)
	leadingYearRe = regexp.MustCompile(`^(\d+)`)
	monthSuffixRe = regexp.MustCompile(`(\d+)月`)
	trailMonthRe  = regexp.MustCompile(`-(\d+)$`)
)

// approximateOffset nudges "约" dates slightly later so an approximate date
// sorts just after the exact same date.
const approximateOffset = 0.0001

// ParseDateKey parses a date expression into a sortable numeric key.
// An empty string returns 0.
func ParseDateKey(dateStr string) float64 {
	if dateStr == "" {
		return 0
	}

	working := dateStr
	approximate := strings.HasPrefix(working, "约")
	if approximate {
		working = strings.TrimPrefix(working, "约")
	}

	bce := strings.HasPrefix(working, "前") || strings.HasPrefix(working, "-")
	if bce {
		working = strings.TrimPrefix(strings.TrimPrefix(working, "前"), "-")
	}

	yearMatch := yearSuffixRe.FindStringSubmatch(working)
	matchedYearLen := 0
	if yearMatch != nil {
		matchedYearLen = strings.Index(working, yearMatch[0]) + len(yearMatch[0])
	} else {
		yearMatch = leadingYearRe.FindStringSubmatch(working)
		if yearMatch != nil {
			matchedYearLen = len(yearMatch[0])
		}
	}

	// Era-name dates like "汉元年十一月" carry no digits. Push them into the
	// 10000..10999 band, hashed so identical strings keep identical keys.
	if yearMatch == nil {
		return 10000 + float64(stringHash(dateStr)%1000)
	}

	year, _ := strconv.Atoi(yearMatch[1])

	month := 0.0
	monthMatch := monthSuffixRe.FindStringSubmatch(working)
	if monthMatch == nil {
		// "-206-12" style: the month trails the year.
		monthMatch = trailMonthRe.FindStringSubmatch(working[matchedYearLen:])
	}
	if monthMatch != nil {
		m, _ := strconv.Atoi(monthMatch[1])
		month = float64(m) / 100
	} else {
		// Season words map onto rough months.
		switch {
		case strings.Contains(working, "春"):
			month = 0.03
		case strings.Contains(working, "夏"):
			month = 0.06
		case strings.Contains(working, "秋"):
			month = 0.09
			if strings.Contains(working, "秋末") || strings.Contains(working, "晚秋") {
				month = 0.11
			}
		case strings.Contains(working, "冬"):
			month = 0.12
		}
	}

	if bce {
		// The month is subtracted from the magnitude so that within a BCE
		// year a later month yields a larger (less negative) key:
		// 前256年 = -256, 前256年4月 = -255.96.
		result := -(float64(year) - month)
		if approximate {
			return result + approximateOffset
		}
		return result
	}

	result := float64(year) + month
	if approximate {
		return result - approximateOffset
	}
	return result
}

// stringHash is a 31x rolling hash over UTF-16 code units, truncated to
// 32 bits. Chinese text sits in the basic plane, so ranging over runes
// produces the same units.
func stringHash(s string) int64 {
	var hash int32
	for _, r := range s {
		hash = hash*31 + int32(r)
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return h
}

// ParseYear extracts the integer year from a date expression, negative for
// BCE. Returns nil when no year can be read.
func ParseYear(dateStr string) *int {
	if dateStr == "" {
		return nil
	}
	key := ParseDateKey(dateStr)
	if key >= 10000 {
		return nil
	}
	// Rounding to two decimals drops the approximate-date offset; the month
	// fraction shifts a BCE key toward zero, so flooring recovers the year on
	// the negative side while truncation handles the positive.
	key = math.Round(key*100) / 100
	year := int(math.Trunc(key))
	if key < 0 {
		year = int(math.Floor(key))
	}
	return &year
}

// FormatYear renders an integer year in the corpus's textual form, "前206年"
// for BCE. Nil yields "".
func FormatYear(year *int) string {
	if year == nil {
		return ""
	}
	if *year < 0 {
		return fmt.Sprintf("前%d年", -*year)
	}
	return fmt.Sprintf("%d年", *year)
}

// SortEventsByParagraphAndTime orders events by the earliest related
// paragraph, then by parsed start time within the same paragraph. Events
// without a resolvable paragraph sort last. The sort is stable so extraction
// order breaks remaining ties.
func SortEventsByParagraphAndTime(events []EventProposal, paragraphOrder map[string]int) {
	minOrder := func(ev *EventProposal) int {
		best := math.MaxInt
		for _, id := range ev.RelatedParagraphs {
			if order, ok := paragraphOrder[id]; ok && order < best {
				best = order
			}
		}
		return best
	}

	sort.SliceStable(events, func(i, j int) bool {
		oi, oj := minOrder(&events[i]), minOrder(&events[j])
		if oi != oj {
			return oi < oj
		}
		return ParseDateKey(events[i].TimeRangeStart) < ParseDateKey(events[j].TimeRangeStart)
	})
}
