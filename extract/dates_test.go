package extract

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateKey(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
		want    float64
	}{
		{"empty", "", 0},
		{"bce year", "前206年", -206},
		{"bce year dash form", "-206年", -206},
		{"ce year", "25年", 25},
		{"ce bare number", "25", 25},
		{"bce with month suffix", "前206年12月", -205.88},
		{"bce dash month form", "-206-12", -205.88},
		{"ce dash month form", "25-12", 25.12},
		{"bce spring", "前206年春", -205.97},
		{"bce winter", "前206年冬", -205.88},
		{"bce late autumn", "前206年秋末", -205.89},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseDateKey(tt.dateStr), 1e-9)
		})
	}
}

func TestParseDateKey_Approximate(t *testing.T) {
	exact := ParseDateKey("前206年")
	approx := ParseDateKey("约前206年")

	// An approximate date sorts just after the same exact date.
	assert.Greater(t, approx, exact)
	assert.InDelta(t, exact, approx, 0.001)

	ceExact := ParseDateKey("25年")
	ceApprox := ParseDateKey("约25年")
	assert.Less(t, ceApprox, ceExact)
}

func TestParseDateKey_EraNameFallsPastAllDates(t *testing.T) {
	key := ParseDateKey("汉元年十一月")

	assert.GreaterOrEqual(t, key, 10000.0)
	assert.Less(t, key, 11000.0)

	// Identical strings hash to identical keys.
	assert.Equal(t, key, ParseDateKey("汉元年十一月"))
}

func TestParseDateKey_Ordering(t *testing.T) {
	dates := []string{"25年", "前195年", "前256年", "1年", "前206年"}
	sort.Slice(dates, func(i, j int) bool {
		return ParseDateKey(dates[i]) < ParseDateKey(dates[j])
	})

	assert.Equal(t, []string{"前256年", "前206年", "前195年", "1年", "25年"}, dates)
}

func TestParseDateKey_MonthsOrderWithinBCEYear(t *testing.T) {
	// Within one BCE year a later month sorts later.
	jan := ParseDateKey("前206年1月")
	apr := ParseDateKey("前206年4月")
	dec := ParseDateKey("前206年12月")

	assert.Less(t, jan, apr)
	assert.Less(t, apr, dec)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		dateStr string
		want    *int
	}{
		{"前256年", intPtr(-256)},
		{"前256年4月", intPtr(-256)},
		{"约前206年", intPtr(-206)},
		{"25年", intPtr(25)},
		{"25-12", intPtr(25)},
		{"", nil},
		{"汉元年十一月", nil},
	}

	for _, tt := range tests {
		t.Run(tt.dateStr, func(t *testing.T) {
			got := ParseYear(tt.dateStr)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestFormatYear(t *testing.T) {
	assert.Equal(t, "前206年", FormatYear(intPtr(-206)))
	assert.Equal(t, "25年", FormatYear(intPtr(25)))
	assert.Equal(t, "", FormatYear(nil))
}

func TestSortEventsByParagraphAndTime(t *testing.T) {
	events := []EventProposal{
		{Name: "later paragraph", RelatedParagraphs: []string{"p3"}},
		{Name: "no paragraph", TimeRangeStart: "前300年"},
		{Name: "early paragraph late time", RelatedParagraphs: []string{"p1"}, TimeRangeStart: "前195年"},
		{Name: "early paragraph early time", RelatedParagraphs: []string{"p1"}, TimeRangeStart: "前206年"},
	}
	order := map[string]int{"p1": 0, "p2": 1, "p3": 2}

	SortEventsByParagraphAndTime(events, order)

	var names []string
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{
		"early paragraph early time",
		"early paragraph late time",
		"later paragraph",
		"no paragraph",
	}, names)
}

func intPtr(v int) *int { return &v }
