package timeline

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/coecms/clef/pkg/errors"
)

// Range is a half-open integer interval [Lower, Upper) as stored in the
// inventory's INT4RANGE period column. Bounds are either YYYYMM or YYYYMMDD.
type Range struct {
	Lower int64
	Upper int64
}

// String renders the range in PostgreSQL's canonical text form.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Lower, r.Upper)
}

// Value implements driver.Valuer.
func (r Range) Value() (driver.Value, error) {
	return r.String(), nil
}

// Scan implements sql.Scanner for the range text form. Inclusive upper
// bounds ("]") and exclusive lower bounds ("(") are normalised to [l,u).
func (r *Range) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*r = Range{}
		return nil
	default:
		return errors.NewParseError("range", "", fmt.Sprintf("unsupported type %T", value), nil)
	}
	parsed, err := ParseRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRange parses "[200601,204013)" style text.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 || s == "empty" {
		return Range{}, errors.NewParseError("range", "", fmt.Sprintf("cannot parse %q", s), nil)
	}
	open, closing := s[0], s[len(s)-1]
	if (open != '[' && open != '(') || (closing != ')' && closing != ']') {
		return Range{}, errors.NewParseError("range", "", fmt.Sprintf("bad bounds in %q", s), nil)
	}
	lo, hi, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return Range{}, errors.NewParseError("range", "", fmt.Sprintf("missing comma in %q", s), nil)
	}
	lower, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return Range{}, errors.WrapParse("range", "", err)
	}
	upper, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return Range{}, errors.WrapParse("range", "", err)
	}
	if open == '(' {
		lower++
	}
	if closing == ']' {
		upper++
	}
	return Range{Lower: lower, Upper: upper}, nil
}
