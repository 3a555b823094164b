package excel

import "sigcompare/domain/core"

// RawRowData represents a row of raw table data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents a complete tabular dataset read from CSV or XLSX
type ExcelData struct {
	Source      string           // File path or label the data came from
	Headers     []string         // Column headers, whitespace-trimmed
	Rows        []RawRowData     // Data rows, header excluded, in file order
	Fingerprint core.Fingerprint // Name-based UUID of the raw input bytes
}

// HasColumn reports whether a header with the given name exists
func (d *ExcelData) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the requested columns that are absent, in request order
func (d *ExcelData) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !d.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}
