// Package parser turns the column-aligned text printed by the container
// runtime CLI into records.
//
// Tabular output is parsed by locating each expected column label in the
// header line and slicing every data row at those offsets. When a column's
// own label or its successor label is missing, or the successor appears
// before it, the row is split on whitespace instead and the field is
// picked by position. Both strategies are heuristics: a CLI release that
// renames, reorders or localizes its headers yields wrong or empty fields
// rather than an error.
package parser

import "strings"

// Column is one expected header label with the positional fallback used
// when offset slicing is not possible for it.
type Column struct {
	Label    string
	Fallback func(line []rune, fields []string) string
}

// Table is an ordered set of columns. The last column always extends to
// the end of the line.
type Table []Column

// Parse slices output into rows of trimmed field values, one value per
// column. Empty output, a missing header or a header without data rows
// yield an empty, non-nil result.
func (t Table) Parse(output string) [][]string {
	rows := [][]string{}
	if output == "" {
		return rows
	}
	lines := strings.Split(output, "\n")
	if len(lines) < 2 || lines[0] == "" {
		return rows
	}

	offsets := t.offsets(lines[0])
	for _, raw := range lines[1:] {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line := []rune(strings.TrimRight(raw, "\r"))
		fields := strings.Fields(string(line))

		row := make([]string, len(t))
		for i, col := range t {
			start := offsets[i]
			if i == len(t)-1 {
				if start >= 0 {
					row[i] = between(line, start, len(line))
				} else {
					row[i] = col.Fallback(line, fields)
				}
				continue
			}
			if next := offsets[i+1]; start >= 0 && next > start {
				row[i] = between(line, start, next)
			} else {
				row[i] = col.Fallback(line, fields)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// offsets returns the character offset of every column label in header,
// or -1 for labels that do not appear.
func (t Table) offsets(header string) []int {
	out := make([]int, len(t))
	for i, col := range t {
		idx := strings.Index(header, col.Label)
		if idx > 0 {
			// Header labels are ASCII but anything before them may not be.
			idx = len([]rune(header[:idx]))
		}
		out[i] = idx
	}
	return out
}

// between returns line[start:end] trimmed, clamping both bounds to the line.
func between(line []rune, start, end int) string {
	if start > len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(string(line[start:end]))
}

// field returns the i-th whitespace token, or "" when there are fewer.
func field(i int) func([]rune, []string) string {
	return func(_ []rune, fields []string) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
}

// lastField returns the final whitespace token, or "" for an empty line.
func lastField(_ []rune, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
