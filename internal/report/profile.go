package report

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// nextPercent consumes one comma terminated value from stream.
func nextPercent(stream string) (uint8, string, error) {
	raw, rest, _ := strings.Cut(stream, ",")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, rest, fmt.Errorf("empty value")
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, rest, fmt.Errorf("bad number %q", raw)
	}
	v, err := safecast.Conv[uint8](n)
	if err != nil {
		return 0, rest, fmt.Errorf("value %d out of range: %w", n, err)
	}
	return v, rest, nil
}

// encodeProfile writes the PROF: stream for prof.
func encodeProfile(sb *strings.Builder, n int, get func(int) (uint8, uint8)) {
	for i := range n {
		deep, shallow := get(i)
		sb.WriteString(strconv.Itoa(int(deep)))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(int(shallow)))
		sb.WriteByte(',')
	}
}
