package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigcompare/domain/core"
	"sigcompare/internal"
	"sigcompare/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	fileTypeCSV  = "csv"
	fileTypeTSV  = "tsv"
	fileTypeXLSX = "xlsx"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	config   ReaderConfig
	fileType string
	logger   *internal.Logger
}

// NewDataReader creates a data reader that picks CSV, TSV or XLSX parsing from the file extension
func NewDataReader(config ReaderConfig) *DataReader {
	return &DataReader{
		config:   config,
		fileType: detectFileType(config.FilePath),
		logger:   internal.Discard(),
	}
}

// WithLogger routes read diagnostics to l at debug level
func (r *DataReader) WithLogger(l *internal.Logger) *DataReader {
	if l != nil {
		r.logger = l
	}
	return r
}

func detectFileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return fileTypeXLSX
	case ".tsv", ".tab":
		return fileTypeTSV
	default:
		return fileTypeCSV
	}
}

// ReadData reads the configured file into structured format. The file is read once.
func (r *DataReader) ReadData() (*ExcelData, error) {
	if r.config.FilePath == "" {
		return nil, errors.ConfigInvalid("input path is required")
	}
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.config.FilePath)

	content, err := os.ReadFile(r.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.config.FilePath)), "failed to open input")
		}
		return nil, errors.Wrapf(err, "failed to read %s", r.config.FilePath)
	}

	var data *ExcelData
	switch r.fileType {
	case fileTypeXLSX:
		data, err = r.parseExcel(content)
	case fileTypeCSV, fileTypeTSV:
		body := bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
		data, err = ParseDelimited(bytes.NewReader(body), r.config.delimiterRune(r.fileType))
	default:
		err = errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("%w: %s", core.ErrUnsupportedIO, r.fileType))
	}
	if err != nil {
		return nil, err
	}

	data.Source = r.config.FilePath
	data.Fingerprint = core.NewFingerprint(content)
	r.logger.Debug("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(data.Headers), len(data.Rows))
	return data, nil
}

// parseExcel reads the configured sheet (first sheet by default) of an XLSX workbook
func (r *DataReader) parseExcel(content []byte) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open Excel file: %w", err))
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read sheet %q: %w", sheet, err))
	}
	r.logger.Debug("[DataReader] sheet %q read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return processRows(rows), nil
}

// ParseDelimited parses delimited text. A file with no rows yields no headers.
func ParseDelimited(src io.Reader, delimiter rune) (*ExcelData, error) {
	reader := csv.NewReader(src)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to parse delimited file: %w", err))
	}
	return processRows(rows), nil
}

// processRows converts raw string rows into ExcelData format
func processRows(rows [][]string) *ExcelData {
	data := &ExcelData{}
	if len(rows) == 0 {
		return data
	}

	headerRow := rows[0]
	data.Headers = make([]string, len(headerRow))
	for i, header := range headerRow {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		data.Headers[i] = strings.TrimSpace(header)
	}
	data.Headers = dedupeHeaders(data.Headers)

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rowData := make(RawRowData, len(data.Headers))
		for j, cell := range row {
			if j < len(data.Headers) {
				rowData[data.Headers[j]] = strings.TrimSpace(cell)
			}
		}
		data.Rows = append(data.Rows, rowData)
	}
	return data
}

// dedupeHeaders keeps the first occurrence of a repeated header and renames
// later ones to name.1, name.2, ...
func dedupeHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		seen[h] = true
	}
	counts := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		if counts[h] == 0 {
			counts[h] = 1
			out[i] = h
			continue
		}
		name := h
		for {
			name = fmt.Sprintf("%s.%d", h, counts[h])
			counts[h]++
			if !seen[name] {
				break
			}
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
