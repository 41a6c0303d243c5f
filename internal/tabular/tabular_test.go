package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contacts-cli/internal/model"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func collectRows(ctx context.Context, t *testing.T, src *Source) ([]Row, error) {
	t.Helper()
	rowCh, errCh := src.Stream(ctx)
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestOpen_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Nome,Telefone\nJoão,11999990000\n")...)
	src, err := Open(writeTestFile(t, "crm.csv", data))
	require.NoError(t, err)

	desc := src.Descriptor()
	assert.Equal(t, EncodingUTF8SIG, desc.Encoding)
	assert.False(t, desc.UsedFallback)
	assert.Equal(t, ",", desc.Delimiter)
	assert.Equal(t, model.FormatCSV, desc.Format)
	assert.Equal(t, []string{"Nome", "Telefone"}, src.Headers())

	rows, err := collectRows(context.Background(), t, src)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "João", rows[0].Get("Nome"))
	assert.Equal(t, "11999990000", rows[0].Get("Telefone"))
}

func TestOpen_CP1252(t *testing.T) {
	// "Observações" and a curly quote in Windows-1252.
	data := []byte("Nome;Observa\xe7\xf5es\nAna;\x93ok\x94\n")
	src, err := Open(writeTestFile(t, "crm.csv", data))
	require.NoError(t, err)

	desc := src.Descriptor()
	assert.Equal(t, EncodingCP1252, desc.Encoding)
	assert.True(t, desc.UsedFallback)
	assert.Equal(t, ";", desc.Delimiter)
	assert.Equal(t, []string{"Nome", "Observações"}, desc.Headers)

	rows, err := collectRows(context.Background(), t, src)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "“ok”", rows[0].Get("Observações"))
}

func TestOpen_Latin1WhenCP1252Undefined(t *testing.T) {
	// 0x81 is undefined in Windows-1252.
	data := []byte("Nome,Telefone\nJos\xe9\x81,123\n")
	src, err := Open(writeTestFile(t, "crm.csv", data))
	require.NoError(t, err)

	desc := src.Descriptor()
	assert.Equal(t, EncodingLatin1, desc.Encoding)
	assert.True(t, desc.UsedFallback)

	rows, err := collectRows(context.Background(), t, src)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "José\u0081", rows[0].Get("Nome"))
}

// paddedCSV returns a header plus enough valid rows to push tail past the
// sniff window.
func paddedCSV(header, row string, tail []byte) []byte {
	var b strings.Builder
	b.WriteString(header + "\n")
	for b.Len() <= SniffBytes {
		b.WriteString(row + "\n")
	}
	return append([]byte(b.String()), tail...)
}

func TestStream_InvalidUTF8AfterSniffWindow(t *testing.T) {
	data := paddedCSV("Name,Phone", "Ana Souza,11911110000", []byte("Jos\xe9,11911112222\n"))
	src, err := Open(writeTestFile(t, "google.csv", data))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8SIG, src.Descriptor().Encoding)

	rows, err := collectRows(context.Background(), t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid UTF-8")
	assert.Contains(t, err.Error(), "tabular: read row")
	for _, row := range rows {
		assert.NotContains(t, row.Get("Name"), "\uFFFD")
	}

	_, err = src.Count(context.Background())
	assert.Error(t, err)
}

func TestStream_UndefinedCP1252AfterSniffWindow(t *testing.T) {
	data := paddedCSV("Nome;Observa\xe7\xf5es", "Ana;ok", []byte("Bia;\x81\n"))
	src, err := Open(writeTestFile(t, "crm.csv", data))
	require.NoError(t, err)
	assert.Equal(t, EncodingCP1252, src.Descriptor().Encoding)

	_, err = collectRows(context.Background(), t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte undefined in cp1252")
}

func TestDecodesUTF8_TruncatedRune(t *testing.T) {
	prefix := []byte("abc\xc3") // first byte of "ã"
	assert.True(t, decodesUTF8(prefix, true))
	assert.False(t, decodesUTF8(prefix, false))
	assert.False(t, decodesUTF8([]byte("abc\xe7def"), true))
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tie prefers comma", "a;b,c\n", ','},
		{"blank lines skipped", "\n\n  \na;b\n1;2\n", ';'},
		{"empty", "", ','},
		{"only first five lines", "a,b\n1,2\n3,4\n5,6\n7,8\n;;;;;;;;;;;;;\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDelimiter(strings.NewReader(tt.input)))
		})
	}
}

func TestStream_ShortAndLongRows(t *testing.T) {
	src, err := Open(writeTestFile(t, "g.csv", []byte("Name,Phone 1 - Value,Notes\nMaria,123\nJoao,456,n,extra\n")))
	require.NoError(t, err)

	rows, err := collectRows(context.Background(), t, src)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "", rows[0].Get("Notes"))
	_, present := rows[0].Values["Notes"]
	assert.True(t, present)
	assert.Equal(t, 3, rows[1].Line)
	assert.Len(t, rows[1].Values, 3)
	assert.Equal(t, "", rows[1].Get(""))
}

func TestStream_Restartable(t *testing.T) {
	src, err := Open(writeTestFile(t, "g.csv", []byte("Name,Phone\na,1\nb,2\nc,3\n")))
	require.NoError(t, err)

	for range 2 {
		n, err := src.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
}

func TestStream_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Name,Phone\n")
	for range 10000 {
		sb.WriteString("a,1\n")
	}
	src, err := Open(writeTestFile(t, "big.csv", []byte(sb.String())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = collectRows(ctx, t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestOpen_EmptyFile(t *testing.T) {
	src, err := Open(writeTestFile(t, "empty.csv", nil))
	require.NoError(t, err)
	assert.Empty(t, src.Headers())
	assert.Equal(t, EncodingUTF8SIG, src.Descriptor().Encoding)

	n, err := src.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contatos")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "crm.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestOpen_XLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"Nome", "Celular"},
		{"Ana", "11988887777"},
		{"Bia", "11977776666"},
	})

	src, err := Open(path)
	require.NoError(t, err)

	desc := src.Descriptor()
	assert.Equal(t, model.FormatXLSX, desc.Format)
	assert.Equal(t, EncodingXLSX, desc.Encoding)
	assert.Empty(t, desc.Delimiter)
	assert.Equal(t, []string{"Nome", "Celular"}, desc.Headers)

	rows, err := collectRows(context.Background(), t, src)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Ana", rows[0].Get("Nome"))
	assert.Equal(t, "11977776666", rows[1].Get("Celular"))
}
