package cliconfig

import (
	"regexp"
	"strconv"
)

var intervalPattern = regexp.MustCompile(`^(\d+)(s|m|h)$`)

// ParseUpdateInterval converts "30s", "5m" or "1h" to seconds. Anything
// else yields 0.
func ParseUpdateInterval(s string) int {
	m := intervalPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	switch m[2] {
	case "h":
		n *= 60 * 60
	case "m":
		n *= 60
	}
	return n
}
