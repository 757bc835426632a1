package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/runlens/internal/contract"
)

// renderTo runs render against stdout, or against path when one is set.
// A file is reported on stderr as "Wrote <what> to <path>" once it is closed.
func renderTo(path, what string, render func(io.Writer) error) (err error) {
	out, err := contract.SelectOutputFile(path)
	if err != nil {
		return err
	}
	if out == os.Stdout {
		return render(out)
	}
	defer func() {
		err = errors.Join(err, out.Close())
		if err == nil {
			_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %s to %s\n", what, path)
		}
	}()
	return render(out)
}

// writeJSON encodes a snapshot or metric value as indented JSON.
func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %T as JSON: %w", value, err)
	}
	return nil
}

// writeCSVSections writes one CSV block per section. A lone section is a plain
// header plus rows; several are titled and separated by an empty record.
func writeCSVSections(w io.Writer, sections []section) error {
	cw := csv.NewWriter(w)
	titled := len(sections) > 1
	for i, s := range sections {
		if titled {
			if i > 0 {
				if err := cw.Write([]string{}); err != nil {
					return err
				}
			}
			if err := cw.Write([]string{"# " + s.title}); err != nil {
				return err
			}
		}
		if err := cw.Write(s.headers); err != nil {
			return fmt.Errorf("failed to write %s header: %w", s.title, err)
		}
		if err := cw.WriteAll(s.rows); err != nil {
			return fmt.Errorf("failed to write %s rows: %w", s.title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// createFormatter returns the float formatter for the configured precision.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}
