// Package checks evaluates the health of a pyaleph node from its sync
// metrics and from the freshness of the network metrics it publishes.
package checks

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/vietddude/aleph-monitor/internal/core/domain"
)

// ParseExposition parses a Prometheus text exposition into a map of metric
// name to value. Comment lines are skipped. Every other line must be exactly
// "<name> <value>" separated by a single space; labels, timestamps, extra
// whitespace and blank lines are rejected as malformed.
func ParseExposition(text string) (map[string]float64, error) {
	parsed := make(map[string]float64)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, " ")
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<name> <value>\", got %q: %w", lineNo, line, domain.ErrMalformedPayload)
		}

		value, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q: %w", lineNo, parts[1], domain.ErrMalformedPayload)
		}
		parsed[parts[0]] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan metrics: %w: %v", domain.ErrMalformedPayload, err)
	}

	return parsed, nil
}
