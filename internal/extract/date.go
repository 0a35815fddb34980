package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/civisort/county-ingest/internal/model"
)

// DateParts holds the raw numeric components of a matched date. They are
// not guaranteed to form a valid calendar date; see Time.
type DateParts struct {
	Year  int
	Month int
	Day   int
}

// String formats the parts as YYYY-MM-DD without validation.
func (p DateParts) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
}

// Time converts the parts to a UTC date, rejecting values that the
// calendar would otherwise normalize (month 13, February 30, ...).
func (p DateParts) Time() (time.Time, error) {
	if p.Year < 1 || p.Year > 9999 {
		return time.Time{}, &ValidationError{Field: "date", Value: p.String(), Err: eris.New("year out of range")}
	}
	if p.Month < 1 || p.Month > 12 {
		return time.Time{}, &ValidationError{Field: "date", Value: p.String(), Err: eris.New("month out of range")}
	}
	t := model.Date(p.Year, time.Month(p.Month), p.Day)
	if p.Day < 1 || t.Day() != p.Day {
		return time.Time{}, &ValidationError{Field: "date", Value: p.String(), Err: eris.New("day out of range")}
	}
	return t, nil
}

// DateMatcher looks for one date shape in text.
type DateMatcher func(text string) (DateParts, bool)

var (
	isoDateRE     = regexp.MustCompile(`(\d{4})[-_.](\d{1,2})[-_.](\d{1,2})`)
	numericDateRE = regexp.MustCompile(`(\d{1,2})[-_.](\d{1,2})[-_.](\d{2,4})`)
	monthDateRE   = regexp.MustCompile(`(?i)(?:^|[^a-z])([a-z]{3,9})[\s_-]*(\d{1,2}),?\s*(\d{4})`)
)

// MatchISO matches YYYY-MM-DD with '-', '_' or '.' separators.
func MatchISO(text string) (DateParts, bool) {
	m := isoDateRE.FindStringSubmatch(text)
	if m == nil {
		return DateParts{}, false
	}
	return DateParts{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}, true
}

// MatchNumeric matches MM-DD-YYYY and MM-DD-YY. Two-digit years are
// taken as 20YY.
func MatchNumeric(text string) (DateParts, bool) {
	m := numericDateRE.FindStringSubmatch(text)
	if m == nil {
		return DateParts{}, false
	}
	year := atoi(m[3])
	if year < 100 {
		year += 2000
	}
	return DateParts{Year: year, Month: atoi(m[1]), Day: atoi(m[2])}, true
}

// MonthNameMatcher returns a matcher for "March 11, 2025" style dates.
// Candidates whose leading word is not a month in the table are passed
// over in favor of later candidates.
func MonthNameMatcher(months MonthTable) DateMatcher {
	return func(text string) (DateParts, bool) {
		for _, m := range monthDateRE.FindAllStringSubmatch(text, -1) {
			month, ok := months.Lookup(m[1])
			if !ok {
				continue
			}
			return DateParts{Year: atoi(m[3]), Month: int(month), Day: atoi(m[2])}, true
		}
		return DateParts{}, false
	}
}

// DateExtractor tries an ordered list of matchers; the first one that
// matches decides the result.
type DateExtractor struct {
	matchers []DateMatcher
}

// NewDateExtractor builds an extractor from explicit matchers.
func NewDateExtractor(matchers ...DateMatcher) *DateExtractor {
	return &DateExtractor{matchers: matchers}
}

// NewMinutesDateExtractor returns the ISO, numeric, month-name chain used
// for board minutes.
func NewMinutesDateExtractor(months MonthTable) *DateExtractor {
	return NewDateExtractor(MatchISO, MatchNumeric, MonthNameMatcher(months))
}

// Extract returns the first matched date in text. It returns ErrNoDate
// when nothing matches and a *ValidationError when the first match is not
// a real calendar date.
func (e *DateExtractor) Extract(text string) (time.Time, error) {
	text = NormalizeText(text)
	for _, match := range e.matchers {
		parts, ok := match(text)
		if !ok {
			continue
		}
		return parts.Time()
	}
	return time.Time{}, ErrNoDate
}

// NormalizeText turns URL-encoded spaces into literal spaces.
func NormalizeText(s string) string {
	return strings.ReplaceAll(s, "%20", " ")
}

// LinkText joins anchor text and URL into the string date matchers see.
func LinkText(link model.DocumentLink) string {
	return link.AnchorText + " " + link.URL
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
