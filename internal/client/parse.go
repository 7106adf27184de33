package client

import (
	"fmt"
	"strconv"
	"strings"

	"ipcam-cli/pkg/models"
)

// ParseFields parses a VAPIX text reply: one name=value per line. The line
// is split at the first '=' only, so values may contain '='. Values that
// parse as floats become numbers, the rest are kept as trimmed text.
func ParseFields(body string) (models.Fields, error) {
	fields := make(models.Fields)

	for i, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: no '=' in %q", i+1, line)
		}

		fields[strings.TrimSpace(name)] = parseValue(value)
	}

	return fields, nil
}

func parseValue(raw string) models.Value {
	v := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return models.Number(f)
	}
	return models.Text(v)
}

// number looks up a numeric field, failing when it is missing or text.
func number(fields models.Fields, name string) (float64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("missing %q", name)
	}
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("%q is not numeric: %q", name, v.String())
	}
	return f, nil
}
