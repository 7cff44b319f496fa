package jobs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnknownAgeDays is the day count assigned to postings whose relative date
// cannot be parsed. Unknown-recency postings sort and filter last.
const UnknownAgeDays = 999

var (
	daysAgoRe   = regexp.MustCompile(`(?i)(\d+)\s*days?\s*ago`)
	weeksAgoRe  = regexp.MustCompile(`(?i)(\d+)\s*weeks?\s*ago`)
	monthsAgoRe = regexp.MustCompile(`(?i)(\d+)\s*months?\s*ago`)
)

// FormatRelativeDate renders an absolute timestamp as the relative-time
// string carried on postings: "Today", "Yesterday", "N days ago" up to a
// week, then weeks, then months. A zero timestamp yields "Recently".
func FormatRelativeDate(t time.Time) string {
	return formatRelativeDate(t, time.Now())
}

func formatRelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}

	days := int(math.Abs(now.Sub(t).Hours()) / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days)
	case days <= 30:
		return fmt.Sprintf("%d weeks ago", (days+6)/7)
	default:
		return fmt.Sprintf("%d months ago", (days+29)/30)
	}
}

// ParseRelativeDays converts a relative-time string back into an integer
// day count for age filtering and date sorting. Unparsable strings map to
// UnknownAgeDays.
func ParseRelativeDays(dateStr string) int {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return UnknownAgeDays
	}

	if strings.EqualFold(s, "Today") {
		return 0
	}
	if strings.EqualFold(s, "Yesterday") {
		return 1
	}

	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := weeksAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 7
	}
	if m := monthsAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 30
	}

	return UnknownAgeDays
}
