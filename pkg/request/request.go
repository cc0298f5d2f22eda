package request

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/errors"
)

const timestampLayout = "20060102T150405"

// Filename returns the request file name for project and user.
func Filename(project, user string, now time.Time) string {
	if user == "" {
		user = "unknown"
	}
	return strings.Join([]string{strings.ToUpper(project), user, now.Format(timestampLayout)}, "_") + ".txt"
}

// Write writes one dataset_id line per key followed by a variable line
// when any key carries a variable. CMIP5 requests must name variables.
func Write(w io.Writer, project string, keys []Key) error {
	if len(keys) == 0 {
		return errors.ErrNoInput
	}
	vars := make(map[string]struct{})
	var b strings.Builder
	for _, k := range keys {
		if strings.EqualFold(project, "CMIP5") && k.Variable == "" {
			return errors.NewValidationError("variable", k.DatasetID,
				"a CMIP5 request needs at least one variable")
		}
		if k.Variable != "" {
			vars[k.Variable] = struct{}{}
		}
		fmt.Fprintf(&b, "dataset_id=%s\n", k.DatasetID)
	}
	if len(vars) > 0 {
		names := make([]string, 0, len(vars))
		for v := range vars {
			names = append(names, v)
		}
		sort.Strings(names)
		b.WriteString(strings.Join(append([]string{"variable="}, names...), " "))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return errors.WrapIO("write", "request", err)
}

// Save writes the request file into dir and returns its path.
func Save(dir, project, user string, keys []Key, now time.Time) (string, error) {
	p := filepath.Join(dir, Filename(project, user, now))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions) //nolint:gosec // path built from configured directory
	if err != nil {
		return "", errors.WrapIO("create", p, err)
	}
	if err := Write(f, project, keys); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.WrapIO("close", p, err)
	}
	return p, nil
}
