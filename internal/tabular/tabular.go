// Package tabular opens delimited text and spreadsheet exports with detected
// encoding and delimiter and streams their rows as header-keyed maps.
package tabular

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/model"
)

// FirstDataLine is the line number of the first row after the header.
const FirstDataLine = 2

// Row is one data row keyed by header. Cells missing from short rows read as "".
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the value for header, or "" when the header is empty or absent.
func (r Row) Get(header string) string {
	if header == "" {
		return ""
	}
	return r.Values[header]
}

// Source is an opened tabular file. Stream re-reads the file on every call.
type Source struct {
	desc model.SourceDescriptor
}

// Open detects the format, encoding, delimiter and headers of path.
func Open(path string) (*Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return openXLSX(path)
	}
	return openCSV(path)
}

// Descriptor returns the detected properties of the source.
func (s *Source) Descriptor() model.SourceDescriptor {
	return s.desc
}

// Headers returns the header row.
func (s *Source) Headers() []string {
	return s.desc.Headers
}

// Stream sends data rows, line-numbered from FirstDataLine, until the file is
// exhausted or ctx is done. Both channels are closed when processing completes.
func (s *Source) Stream(ctx context.Context) (<-chan Row, <-chan error) {
	if s.desc.Format == model.FormatXLSX {
		return s.streamXLSX(ctx)
	}
	return s.streamCSV(ctx)
}

// Count returns the number of data rows.
func (s *Source) Count(ctx context.Context) (int, error) {
	rowCh, errCh := s.Stream(ctx)
	n := 0
	for range rowCh {
		n++
	}
	if err := <-errCh; err != nil {
		return n, err
	}
	return n, nil
}

func openCSV(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	prefix := make([]byte, SniffBytes)
	n, err := io.ReadFull(f, prefix)
	truncated := true
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		truncated = false
	case err != nil:
		return nil, eris.Wrapf(err, "tabular: read %s", path)
	}
	prefix = prefix[:n]

	enc, fallback := detectEncoding(prefix, truncated)
	desc := model.SourceDescriptor{
		Path:         path,
		Format:       model.FormatCSV,
		Encoding:     enc,
		UsedFallback: fallback,
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, eris.Wrapf(err, "tabular: rewind %s", path)
	}
	desc.Delimiter = string(detectDelimiter(decodingReader(f, enc)))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, eris.Wrapf(err, "tabular: rewind %s", path)
	}
	reader := newCSVReader(decodingReader(f, enc), desc.Delimiter)
	header, err := reader.Read()
	switch {
	case err == io.EOF:
		header = nil
	case err != nil:
		return nil, eris.Wrapf(err, "tabular: read header %s", path)
	}
	desc.Headers = header

	return &Source{desc: desc}, nil
}

func newCSVReader(r io.Reader, delimiter string) *csv.Reader {
	reader := csv.NewReader(r)
	if delimiter != "" {
		reader.Comma = []rune(delimiter)[0]
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields
	return reader
}

func (s *Source) streamCSV(ctx context.Context) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		f, err := os.Open(s.desc.Path)
		if err != nil {
			errCh <- eris.Wrapf(err, "tabular: open %s", s.desc.Path)
			return
		}
		defer f.Close() //nolint:errcheck

		reader := newCSVReader(decodingReader(f, s.desc.Encoding), s.desc.Delimiter)
		if _, err := reader.Read(); err != nil {
			if err != io.EOF {
				errCh <- eris.Wrap(err, "tabular: read header")
			}
			return
		}

		line := FirstDataLine
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "tabular: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrapf(err, "tabular: read row %d", line)
				return
			}

			select {
			case rowCh <- newRow(line, s.desc.Headers, record):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "tabular: context cancelled")
				return
			}
			line++
		}
	}()

	return rowCh, errCh
}

// newRow keys record by headers. Extra cells are dropped; a repeated header
// keeps its first cell.
func newRow(line int, headers, record []string) Row {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if _, dup := values[h]; dup {
			continue
		}
		if i < len(record) {
			values[h] = record[i]
		} else {
			values[h] = ""
		}
	}
	return Row{Line: line, Values: values}
}
