// Package labels maps model output indices to breed identifiers.
package labels

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// Table is an ordered list of breed identifiers, index-aligned to the
// model's output tensor. Built once during initialization; read-only after.
type Table struct {
	names []string
}

// removeBOM removes a UTF-8 BOM if present from the first line.
func removeBOM(line string, isFirstLine bool) string {
	if isFirstLine {
		return strings.TrimPrefix(line, "\uFEFF")
	}
	return line
}

// Parse builds a Table from raw label file bytes. Each non-empty line is one
// breed identifier; leading/trailing whitespace is trimmed and order is
// preserved. Duplicates are kept as-is: a duplicated label is a data-quality
// issue in the training export, not something to paper over here. Empty
// input yields an empty table, not an error; the facade decides whether
// that is fatal.
func Parse(data []byte) *Table {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	names := make([]string, 0, 64)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(removeBOM(scanner.Text(), lineNum == 1))
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return &Table{names: names}
}

// Len returns the number of labels.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Name returns the label at index i. Out-of-range indices degrade to a
// synthetic placeholder so that a corrupt or truncated label file does not
// take down an otherwise functional numeric result.
func (t *Table) Name(i int) string {
	if t == nil || i < 0 || i >= len(t.names) {
		return fmt.Sprintf("breed_%d", i)
	}
	return t.names[i]
}

// Names returns a copy of all labels in index order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// DisplayName converts a breed identifier such as "maine_coon" into a
// human-readable form ("Maine Coon") for CLI and server output.
func DisplayName(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, p := range parts {
		r := []rune(p)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
