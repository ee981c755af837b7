package denylist

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ConvertRegistry turns a whitespace separated registry (identifier first,
// free text after) into the CSV denylist format. Blank lines are skipped.
// It returns the number of records written.
func ConvertRegistry(r io.Reader, w io.Writer, header bool) (int, error) {
	out := csv.NewWriter(w)
	if header {
		if err := out.Write([]string{"id", "note"}); err != nil {
			return 0, err
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	written := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, rest := line, ""
		if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
			id, rest = line[:i], strings.TrimSpace(line[i:])
		}
		if err := out.Write([]string{id, rest}); err != nil {
			return written, err
		}
		written++
	}
	if err := scanner.Err(); err != nil {
		return written, fmt.Errorf("read registry: %w", err)
	}
	out.Flush()
	return written, out.Error()
}
