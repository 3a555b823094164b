package excel

// ReaderConfig holds parsing options for a data source
type ReaderConfig struct {
	FilePath  string `json:"file_path" yaml:"path"`
	Sheet     string `json:"sheet" yaml:"sheet"`         // XLSX only; empty selects the first sheet
	Delimiter string `json:"delimiter" yaml:"delimiter"` // CSV only; empty selects by extension
}

// DefaultReaderConfig returns sensible defaults for reading score tables
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}

// delimiterRune resolves the CSV field separator for a file type
func (c ReaderConfig) delimiterRune(fileType string) rune {
	switch c.Delimiter {
	case "tab", "\\t", "\t":
		return '\t'
	case "":
		if fileType == fileTypeTSV {
			return '\t'
		}
		return ','
	}
	return []rune(c.Delimiter)[0]
}
