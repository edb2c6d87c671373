package core

import (
	"fmt"
	"strconv"
	"strings"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/shared/constants"
)

// ReportTemplate turns a process index into a report filename. The template
// holds exactly one "{}" (or "{0}") site; "{{" and "}}" stand for literal
// braces.
type ReportTemplate struct {
	raw    string
	prefix string
	suffix string
}

func ParseTemplate(raw string) (ReportTemplate, error) {
	var (
		b      strings.Builder
		prefix string
		sites  int
	)

	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				return ReportTemplate{}, fmt.Errorf("%w: %q: unclosed '{'", domain.ErrInvalidTemplate, raw)
			}
			if field := raw[i+1 : i+end]; field != "" && field != "0" {
				return ReportTemplate{}, fmt.Errorf("%w: %q: unsupported field {%s}", domain.ErrInvalidTemplate, raw, field)
			}
			sites++
			if sites > 1 {
				return ReportTemplate{}, fmt.Errorf("%w: %q: more than one placeholder", domain.ErrInvalidTemplate, raw)
			}
			prefix = b.String()
			b.Reset()
			i += end
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return ReportTemplate{}, fmt.Errorf("%w: %q: single '}'", domain.ErrInvalidTemplate, raw)
		default:
			b.WriteByte(c)
		}
	}

	if sites == 0 {
		return ReportTemplate{}, fmt.Errorf("%w: %q: no {} placeholder", domain.ErrInvalidTemplate, raw)
	}

	return ReportTemplate{raw: raw, prefix: prefix, suffix: b.String()}, nil
}

// Filename returns the report path for process index i, extension included.
func (t ReportTemplate) Filename(i int) string {
	return t.prefix + strconv.Itoa(i) + t.suffix + constants.ReportExtension
}

func (t ReportTemplate) String() string {
	return t.raw
}
