package config

import (
	"fmt"
	"strconv"
)

const (
	kilo = 1024
	mega = kilo * kilo
	giga = kilo * mega
)

// ParseUnitInt parses an integer argument with an optional trailing
// k/K (x1024), m/M (x1024^2), or g/G (x1024^3) multiplier suffix, the
// convention shared by every integer-with-unit flag (-B -D -I -O -R -X).
func ParseUnitInt(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("config: empty integer argument")
	}

	mult := int64(1)
	digits := s
	last := s[len(s)-1]
	switch last {
	case 'k', 'K':
		mult = kilo
		digits = s[:len(s)-1]
	case 'm', 'M':
		mult = mega
		digits = s[:len(s)-1]
	case 'g', 'G':
		mult = giga
		digits = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid integer argument %q: %w", s, err)
	}
	return n * mult, nil
}
