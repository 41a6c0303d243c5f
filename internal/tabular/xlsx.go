package tabular

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contacts-cli/internal/model"
)

func openXLSX(path string) (*Source, error) {
	sheet, err := firstSheet(path)
	if err != nil {
		return nil, err
	}

	var headers []string
	if len(sheet.Rows) > 0 {
		headers = rowToStrings(sheet.Rows[0])
	}

	return &Source{desc: model.SourceDescriptor{
		Path:     path,
		Format:   model.FormatXLSX,
		Encoding: EncodingXLSX,
		Headers:  headers,
	}}, nil
}

func (s *Source) streamXLSX(ctx context.Context) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		sheet, err := firstSheet(s.desc.Path)
		if err != nil {
			errCh <- err
			return
		}

		for i, row := range sheet.Rows {
			if i == 0 {
				continue
			}
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "tabular: context cancelled")
				return
			}

			select {
			case rowCh <- newRow(i+1, s.desc.Headers, rowToStrings(row)):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "tabular: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func firstSheet(path string) (*xlsx.Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("tabular: workbook %s has no sheets", path)
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
