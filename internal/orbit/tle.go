package orbit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LineLength is the fixed width of both element lines, checksum included.
const LineLength = 69

// TLE is a named two-line element set as published by CelesTrak or
// produced by the Beacon synthesizer.
type TLE struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Checksum computes the modulo-10 checksum over the first 68 columns of an
// element line: digits count their value, '-' counts one, everything else
// counts zero.
func Checksum(line string) int {
	if len(line) > LineLength-1 {
		line = line[:LineLength-1]
	}
	sum := 0
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// ValidateFormat checks the fixed-width layout of both lines: length, line
// numbers, matching catalog numbers, and checksums. It never inspects the
// orbital values themselves.
func ValidateFormat(t TLE) error {
	for i, line := range []string{t.Line1, t.Line2} {
		n := i + 1
		if len(line) != LineLength {
			return fmt.Errorf("%w: line %d length %d, expected %d", ErrMalformedElements, n, len(line), LineLength)
		}
		if want := strconv.Itoa(n) + " "; !strings.HasPrefix(line, want) {
			return fmt.Errorf("%w: line %d must start with %q", ErrMalformedElements, n, want)
		}
		got := line[LineLength-1]
		if got < '0' || got > '9' {
			return fmt.Errorf("%w: line %d checksum column %q is not a digit", ErrMalformedElements, n, got)
		}
		if want := Checksum(line); int(got-'0') != want {
			return fmt.Errorf("%w: line %d checksum %c, computed %d", ErrMalformedElements, n, got, want)
		}
	}
	if strings.TrimSpace(t.Line1[2:7]) != strings.TrimSpace(t.Line2[2:7]) {
		return fmt.Errorf("%w: catalog numbers differ between lines (%q vs %q)",
			ErrMalformedElements, t.Line1[2:7], t.Line2[2:7])
	}
	return nil
}

// CatalogNumber returns the NORAD catalog number from line 1.
func (t TLE) CatalogNumber() (int, error) {
	if len(t.Line1) < 7 {
		return 0, fmt.Errorf("%w: line 1 too short for catalog number", ErrMalformedElements)
	}
	return strconv.Atoi(strings.TrimSpace(t.Line1[2:7]))
}

// Two-digit epoch years cover this span.
const (
	MinEpochYear = 1957
	MaxEpochYear = 2056
)

// EpochYearInRange reports whether year survives the two-digit encoding.
func EpochYearInRange(year int) bool {
	return year >= MinEpochYear && year <= MaxEpochYear
}

// Epoch parses the YYDDD.DDDDDDDD epoch in columns 19-32 of line 1.
// Years 57-99 map to the 1900s, 00-56 to the 2000s.
func (t TLE) Epoch() (time.Time, error) {
	if len(t.Line1) < 32 {
		return time.Time{}, fmt.Errorf("%w: line 1 too short for epoch", ErrMalformedElements)
	}
	s := strings.TrimSpace(t.Line1[18:32])
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("%w: epoch %q too short", ErrMalformedElements, s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: epoch year %q: %v", ErrMalformedElements, s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	day, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: epoch day %q: %v", ErrMalformedElements, s[2:], err)
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1) * float64(24*time.Hour))), nil
}

// String renders the set in the three-line text format.
func (t TLE) String() string {
	return t.Name + "\n" + t.Line1 + "\n" + t.Line2
}
