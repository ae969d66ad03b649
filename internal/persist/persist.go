// Package persist writes normalized tool results to disk as JSON, Markdown,
// and tabular artifacts.
package persist

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

var (
	// ErrNoContent indicates a table save was requested for a result that
	// exposes no content sequence.
	ErrNoContent = errors.New("result has no content sequence to tabulate")
	// ErrUnsupportedFormat indicates an unrecognized table format string.
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

const (
	outputDirectoryPermissions = 0o755
	artifactFilePermissions    = 0o644
	jsonIndent                 = "  "
	spreadsheetSheetName       = "Sheet1"
	spreadsheetColumn          = "A"
)

// Writer persists results beneath a single output directory.
type Writer struct {
	directory string
	logger    *zap.Logger
}

// NewWriter constructs a Writer. An empty directory falls back to the
// default output directory; a nil logger is replaced with a no-op logger.
func NewWriter(directory string, logger *zap.Logger) *Writer {
	if directory == "" {
		directory = types.DefaultOutputDirectory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{directory: directory, logger: logger}
}

// Directory reports the output directory the writer targets.
func (writer *Writer) Directory() string {
	return writer.directory
}

// SaveResult writes the serializable reduction as indented JSON and, when the
// value carries text, the text reduction as a sibling Markdown file. Both
// writes are attempted independently; a failure in one is logged and does not
// block the other. The returned artifacts name only the files actually
// written; the returned error is the first failure, if any.
func (writer *Writer) SaveResult(value *normalize.Value, name string) (types.Artifacts, error) {
	if createErr := os.MkdirAll(writer.directory, outputDirectoryPermissions); createErr != nil {
		return types.Artifacts{}, fmt.Errorf("create output directory %s: %w", writer.directory, createErr)
	}

	jsonPath := filepath.Join(writer.directory, name+types.ExtensionJSON)
	textContent, hasText := value.Text()
	markdownPath := ""
	if hasText {
		markdownPath = filepath.Join(writer.directory, name+types.ExtensionMarkdown)
	}

	var artifacts types.Artifacts
	var writeGroup errgroup.Group

	writeGroup.Go(func() error {
		if jsonErr := writeJSON(jsonPath, value.Serializable()); jsonErr != nil {
			writer.logger.Warn("failed to save JSON artifact", zap.String("path", jsonPath), zap.Error(jsonErr))
			return jsonErr
		}
		artifacts.JSONPath = jsonPath
		writer.logger.Info("saved JSON artifact", zap.String("path", jsonPath))
		return nil
	})

	if hasText {
		writeGroup.Go(func() error {
			if markdownErr := os.WriteFile(markdownPath, []byte(textContent), artifactFilePermissions); markdownErr != nil {
				writer.logger.Warn("failed to save Markdown artifact", zap.String("path", markdownPath), zap.Error(markdownErr))
				return markdownErr
			}
			artifacts.MarkdownPath = markdownPath
			writer.logger.Info("saved Markdown artifact", zap.String("path", markdownPath))
			return nil
		})
	}

	firstWriteError := writeGroup.Wait()
	return artifacts, firstWriteError
}

// SaveTable extracts one row per content item and writes a one-column table
// in the requested format. Results without a content sequence return
// ErrNoContent and leave no file behind.
func (writer *Writer) SaveTable(value *normalize.Value, name string, format string) (string, error) {
	rows, hasRows := value.Rows()
	if !hasRows {
		return "", ErrNoContent
	}

	switch format {
	case types.TableFormatCSV:
	case types.TableFormatXLSX:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if createErr := os.MkdirAll(writer.directory, outputDirectoryPermissions); createErr != nil {
		return "", fmt.Errorf("create output directory %s: %w", writer.directory, createErr)
	}

	var tablePath string
	var tableErr error
	switch format {
	case types.TableFormatCSV:
		tablePath = filepath.Join(writer.directory, name+types.ExtensionCSV)
		tableErr = writeCSV(tablePath, rows)
	case types.TableFormatXLSX:
		tablePath = filepath.Join(writer.directory, name+types.ExtensionXLSX)
		tableErr = writeSpreadsheet(tablePath, rows)
	}
	if tableErr != nil {
		writer.logger.Warn("failed to save table artifact", zap.String("path", tablePath), zap.Error(tableErr))
		return "", tableErr
	}
	writer.logger.Info("saved table artifact", zap.String("path", tablePath), zap.Int("rows", len(rows)))
	return tablePath, nil
}

// writeJSON encodes the value with two-space indentation. HTML escaping is
// disabled so non-ASCII and markup characters survive verbatim.
func writeJSON(path string, value any) error {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", jsonIndent)
	if encodeErr := encoder.Encode(value); encodeErr != nil {
		return fmt.Errorf("encode JSON: %w", encodeErr)
	}
	return os.WriteFile(path, buffer.Bytes(), artifactFilePermissions)
}

func writeCSV(path string, rows []string) error {
	file, createErr := os.Create(path)
	if createErr != nil {
		return fmt.Errorf("create %s: %w", path, createErr)
	}
	csvWriter := csv.NewWriter(file)
	for _, row := range rows {
		if writeErr := csvWriter.Write([]string{row}); writeErr != nil {
			file.Close()
			return fmt.Errorf("write row to %s: %w", path, writeErr)
		}
	}
	csvWriter.Flush()
	if flushErr := csvWriter.Error(); flushErr != nil {
		file.Close()
		return fmt.Errorf("flush %s: %w", path, flushErr)
	}
	return file.Close()
}

func writeSpreadsheet(path string, rows []string) error {
	workbook := excelize.NewFile()
	defer workbook.Close()
	for rowIndex, row := range rows {
		cellReference := fmt.Sprintf("%s%d", spreadsheetColumn, rowIndex+1)
		if cellErr := workbook.SetCellValue(spreadsheetSheetName, cellReference, row); cellErr != nil {
			return fmt.Errorf("set cell %s: %w", cellReference, cellErr)
		}
	}
	if saveErr := workbook.SaveAs(path); saveErr != nil {
		return fmt.Errorf("save spreadsheet %s: %w", path, saveErr)
	}
	return nil
}
