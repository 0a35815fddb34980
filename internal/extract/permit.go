package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/civisort/county-ingest/internal/model"
)

var (
	urlDateRE      = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	permitNumberRE = regexp.MustCompile(`BP-\d+`)
	// A 3-5 digit house number not glued to a permit number, then a run
	// of word characters, spaces and periods.
	addressRE = regexp.MustCompile(`(?:^|[^\w-])(\d{3,5}[ \t]+[\w .]+)`)
	// The street ends at a project keyword or a layout column gap.
	addressEndRE  = regexp.MustCompile(`\b(?:New|Alteration|Remodel|Demo)\b| {2,}`)
	descriptionRE = regexp.MustCompile(`\b(?:New|Alteration|Remodel|Demo)[\w ]+`)
)

// FileDateFromURL reads the YYYY-MM-DD date embedded in a permit PDF URL.
// Permits without one are skipped before their content is fetched.
func FileDateFromURL(rawURL string) (time.Time, error) {
	m := urlDateRE.FindStringSubmatch(rawURL)
	if m == nil {
		return time.Time{}, ErrNoDate
	}
	return DateParts{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}.Time()
}

// PermitContent is what the first page of a permit PDF yields.
type PermitContent struct {
	PermitNumber string
	Address      string
	Description  string
}

// ParsePermitText pulls the permit number, street address and project
// description out of first-page text. Description falls back to
// model.DescriptionPlaceholder.
func ParsePermitText(text string) PermitContent {
	c := PermitContent{Description: model.DescriptionPlaceholder}
	if m := permitNumberRE.FindString(text); m != "" {
		c.PermitNumber = m
	}
	if m := addressRE.FindStringSubmatch(text); m != nil {
		c.Address = trimAddress(m[1])
	}
	if m := descriptionRE.FindString(text); m != "" {
		if d := strings.TrimSpace(m); d != "" {
			c.Description = d
		}
	}
	return c
}

// trimAddress cuts a matched address at the first project keyword or column
// gap. A bare house number is not an address.
func trimAddress(s string) string {
	if loc := addressEndRE.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, " \t") {
		return ""
	}
	return s
}
