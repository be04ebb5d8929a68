package iridium

import (
	"bufio"
	"strings"

	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

// ParseText splits raw three-line element text into element sets. A group
// whose lines are not 69 columns wide or lack their "1 "/"2 " prefixes is
// skipped by advancing one line, so a stray line cannot misalign every group
// after it. skipped counts the lines dropped that way.
func ParseText(raw string) (tles []orbit.TLE, skipped int) {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n\t ")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	tles = []orbit.TLE{}
	for i := 0; i+2 < len(lines); {
		name, l1, l2 := lines[i], lines[i+1], lines[i+2]
		if !elementLine(l1, "1 ") || !elementLine(l2, "2 ") {
			skipped++
			i++
			continue
		}
		tles = append(tles, orbit.TLE{
			Name:  strings.TrimSpace(strings.TrimPrefix(name, "0 ")),
			Line1: l1,
			Line2: l2,
		})
		i += 3
	}
	return tles, skipped
}

func elementLine(line, prefix string) bool {
	return len(line) == orbit.LineLength && strings.HasPrefix(line, prefix)
}
