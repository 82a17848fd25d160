package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a timestamp that matched none of the accepted formats.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	if strings.TrimSpace(e.Input) == "" {
		return "cannot parse datetime: empty input"
	}
	return "cannot parse datetime: " + strconv.Quote(e.Input)
}

// Is lets errors.Is(err, ErrHealthDataParse) match timestamp failures.
func (e *ParseError) Is(target error) bool {
	c, ok := target.(ErrorCode)
	return ok && c.Code == ErrHealthDataParse.Code
}

const (
	layoutSpaced  = "2006-01-02 15:04:05"
	layoutISO     = "2006-01-02T15:04:05"
	layoutNumZone = "2006-01-02T15:04:05-0700"
)

var (
	trailingOffset = regexp.MustCompile(`\+\d{4}$`)
	plusFraction   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})\+(\d{4})$`)
)

// timestampParsers are tried in order after normalization.
var timestampParsers = []func(string) (time.Time, error){
	func(s string) (time.Time, error) { return time.Parse(layoutSpaced, s) },
	func(s string) (time.Time, error) { return time.Parse(layoutNumZone, s) },
	parsePlusFraction,
	parseISO,
}

// ParseTimestamp converts a device timestamp into a local date-time. Any
// zone offset in the input is dropped; the wall clock is returned in UTC so
// calendar fields read back exactly as the device wrote them.
func ParseTimestamp(text string) (time.Time, error) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, &ParseError{Input: text}
	}
	normalized := normalizeTimestamp(text)

	for _, parse := range timestampParsers {
		if t, err := parse(normalized); err == nil {
			return wallClock(t), nil
		}
	}

	if len(normalized) >= 19 {
		if t, err := time.Parse(layoutISO, normalized[:19]); err == nil {
			return wallClock(t), nil
		}
	}
	spaced := strings.ReplaceAll(normalized, "T", " ")
	if len(spaced) >= 19 {
		if t, err := time.Parse(layoutSpaced, spaced[:19]); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, &ParseError{Input: text}
}

func normalizeTimestamp(s string) string {
	if strings.Contains(s, "+") && !strings.Contains(s, "T") {
		s = strings.ReplaceAll(s, " ", "T")
	}
	if trailingOffset.MatchString(s) {
		s = s[:len(s)-2] + ":" + s[len(s)-2:]
	}
	return s
}

// parsePlusFraction handles devices that write four fractional-second digits
// after a literal '+', e.g. 2024-11-05T10:00:00+1234.
func parsePlusFraction(s string) (time.Time, error) {
	m := plusFraction.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, &ParseError{Input: s}
	}
	t, err := time.Parse(layoutISO, m[1])
	if err != nil {
		return time.Time{}, err
	}
	frac, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(time.Duration(frac) * 100 * time.Microsecond), nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	layoutISO,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
}

func parseISO(s string) (time.Time, error) {
	var err error
	for _, layout := range isoLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
