// Package racetime parses and formats Time Attack course times.
//
// A token is "M:SS.mmm" or "SS.mmm" with one to three fractional digits.
package racetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/kartcup/internal/domain/model"
)

// Parse converts a time token into a duration.
func Parse(token string) (time.Duration, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return 0, model.Invalid("time", "empty time")
	}

	minutes := 0
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if i == 0 || !digits(s[:i]) {
			return 0, model.Invalid("time", "bad minutes in %q", token)
		}
		minutes, _ = strconv.Atoi(s[:i])
		rest = s[i+1:]
	}

	secPart, fracPart, hasFrac := strings.Cut(rest, ".")
	if secPart == "" || !digits(secPart) {
		return 0, model.Invalid("time", "bad seconds in %q", token)
	}
	seconds, _ := strconv.Atoi(secPart)
	if rest != s {
		if len(secPart) != 2 || seconds >= 60 {
			return 0, model.Invalid("time", "seconds must be 00-59 in %q", token)
		}
	}

	millis := 0
	if hasFrac {
		if len(fracPart) == 0 || len(fracPart) > 3 || !digits(fracPart) {
			return 0, model.Invalid("time", "fraction must be 1-3 digits in %q", token)
		}
		millis, _ = strconv.Atoi(fracPart + strings.Repeat("0", 3-len(fracPart)))
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// Format renders d as "M:SS.mmm", truncated to the millisecond.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// Total sums every course time. A run with any missing or invalid course has
// no total.
func Total(tokens []string) (time.Duration, error) {
	if len(tokens) == 0 {
		return 0, model.Invalid("times", "no course times")
	}
	var sum time.Duration
	for i, tok := range tokens {
		d, err := Parse(tok)
		if err != nil {
			return 0, fmt.Errorf("course %d: %w", i+1, err)
		}
		sum += d
	}
	return sum, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
