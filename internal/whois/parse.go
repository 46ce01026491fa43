package whois

import (
	"regexp"
	"strings"
	"time"
)

var creationLineRe = regexp.MustCompile(`(?im)^\s*(?:creation date|created on|created|registered on|registration time|domain registration date|registered)\s*\.*:\s*(.+?)\s*$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006.01.02 15:04:05",
	"2006.01.02",
	"02-Jan-2006",
	"02.01.2006",
	"02/01/2006",
	"January 2 2006",
	"Mon Jan 2 15:04:05 MST 2006",
	"20060102",
}

// parseWHOISCreationDates returns every creation date found in a WHOIS
// response, in the order the lines appear.
func parseWHOISCreationDates(output string) []time.Time {
	var dates []time.Time
	for _, m := range creationLineRe.FindAllStringSubmatch(output, -1) {
		if t, ok := parseDate(m[1]); ok {
			dates = append(dates, t)
		}
	}
	return dates
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if i := strings.Index(value, " ("); i > 0 {
		value = value[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	// Some registries append a time zone name or extra words after the date.
	if fields := strings.Fields(value); len(fields) > 1 {
		return parseDate(fields[0])
	}
	return time.Time{}, false
}
