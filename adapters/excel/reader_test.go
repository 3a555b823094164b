package excel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sigcompare/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataReader_CSV(t *testing.T) {
	path := writeFile(t, "scores.csv", "\xef\xbb\xbfMethod, Dice ,Case\nA,0.8,1\nB, 0.75 ,1\n\nA,0.82,2\n")

	data, err := NewDataReader(ReaderConfig{FilePath: path}).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"Method", "Dice", "Case"}, data.Headers)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "B", data.Rows[1]["Method"])
	assert.Equal(t, "0.75", data.Rows[1]["Dice"])
	assert.Equal(t, path, data.Source)
	assert.False(t, data.Fingerprint.IsEmpty())
}

func TestDataReader_FingerprintIsContentAddressed(t *testing.T) {
	content := "Method,Dice\nA,0.8\n"
	a, err := NewDataReader(ReaderConfig{FilePath: writeFile(t, "a.csv", content)}).ReadData()
	require.NoError(t, err)
	b, err := NewDataReader(ReaderConfig{FilePath: writeFile(t, "b.csv", content)}).ReadData()
	require.NoError(t, err)
	c, err := NewDataReader(ReaderConfig{FilePath: writeFile(t, "c.csv", content+"B,0.7\n")}).ReadData()
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestDataReader_TSVAndCustomDelimiter(t *testing.T) {
	tsv := writeFile(t, "scores.tsv", "Method\tDice\nA\t0.8\n")
	data, err := NewDataReader(ReaderConfig{FilePath: tsv}).ReadData()
	require.NoError(t, err)
	assert.Equal(t, "0.8", data.Rows[0]["Dice"])

	semi := writeFile(t, "scores.csv", "Method;Dice\nA;0,8\n")
	data, err = NewDataReader(ReaderConfig{FilePath: semi, Delimiter: ";"}).ReadData()
	require.NoError(t, err)
	assert.Equal(t, "0,8", data.Rows[0]["Dice"])
}

func TestDataReader_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Method", "Dice"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"A", 0.8}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"B", 0.75}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	data, err := NewDataReader(ReaderConfig{FilePath: path}).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"Method", "Dice"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "B", data.Rows[1]["Method"])
	assert.Equal(t, "0.75", data.Rows[1]["Dice"])

	_, err = NewDataReader(ReaderConfig{FilePath: path, Sheet: "Missing"}).ReadData()
	assert.Error(t, err)
}

func TestDataReader_Errors(t *testing.T) {
	_, err := NewDataReader(ReaderConfig{}).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = NewDataReader(ReaderConfig{FilePath: filepath.Join(t.TempDir(), "nope.csv")}).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	bad := writeFile(t, "bad.csv", "Method,Dice\n\"A,0.8\n")
	_, err = NewDataReader(ReaderConfig{FilePath: bad}).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestParseDelimited_Empty(t *testing.T) {
	data, err := ParseDelimited(strings.NewReader(""), ',')
	require.NoError(t, err)
	assert.Empty(t, data.Headers)
	assert.Empty(t, data.Rows)
	assert.Equal(t, []string{"Method", "Dice"}, data.MissingColumns("Method", "Dice"))
}

func TestExcelData_MissingColumns(t *testing.T) {
	data, err := ParseDelimited(strings.NewReader("Method,Score\nA,1\n"), ',')
	require.NoError(t, err)

	assert.True(t, data.HasColumn("Method"))
	assert.Equal(t, []string{"Dice"}, data.MissingColumns("Method", "Dice"))
}

func TestParseDelimited_DuplicateHeaders(t *testing.T) {
	data, err := ParseDelimited(strings.NewReader("Method,Dice,Dice\nA,0.8,x\n"), ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"Method", "Dice", "Dice.1"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "0.8", data.Rows[0]["Dice"], "first occurrence keeps the name")
	assert.Equal(t, "x", data.Rows[0]["Dice.1"])

	data, err = ParseDelimited(strings.NewReader("Dice,Dice,Dice.1\n1,2,3\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"Dice", "Dice.2", "Dice.1"}, data.Headers)
	assert.Equal(t, "1", data.Rows[0]["Dice"])
	assert.Equal(t, "3", data.Rows[0]["Dice.1"])
}
