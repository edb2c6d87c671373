package constants

import (
	"fmt"
	"strings"

	sharederrors "amplification-report/app/src/shared/errors"

	"github.com/google/uuid"
)

// NewRunID returns a random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ParseRunID validates the supplied run id and returns its canonical lowercase form.
func ParseRunID(value string) (string, error) {
	value = strings.TrimSpace(value)
	if len(value) != 36 {
		return "", fmt.Errorf("%w: length %d", sharederrors.ErrInvalidRunID, len(value))
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharederrors.ErrInvalidRunID, err)
	}
	return id.String(), nil
}
