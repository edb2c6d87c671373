package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/shared/constants"
)

// ParseLine extracts a measurement from a "<name> <value>[MB]" line. ok is
// false for lines that do not have exactly two whitespace separated tokens;
// those carry no measurement and are not an error.
func ParseLine(line string) (m domain.Measurement, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return domain.Measurement{}, false, nil
	}

	raw := strings.TrimSuffix(fields[1], constants.UnitSuffix)
	if strings.ContainsAny(raw, "xX") {
		return domain.Measurement{}, false, fmt.Errorf("%w: %s %q", domain.ErrMalformedValue, fields[0], fields[1])
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return domain.Measurement{}, false, fmt.Errorf("%w: %s %q", domain.ErrMalformedValue, fields[0], fields[1])
	}

	return domain.Measurement{Name: fields[0], Value: value}, true, nil
}
