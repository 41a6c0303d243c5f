package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/tabular"
	"github.com/sells-group/contacts-cli/internal/textcheck"
)

// writeCSV writes lines joined by newlines into dir/name.
func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newTestPipeline(mutate ...func(*config.PipelineConfig)) *Pipeline {
	cfg := config.DefaultPipeline()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, textcheck.New(textcheck.NewCharmapRepairer()))
}

func runOK(t *testing.T, p *Pipeline, params Params) *model.Report {
	t.Helper()
	report, err := p.Run(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

// readOutputRows returns the data rows of a written batch file, BOM stripped,
// each record joined by commas.
func readOutputRows(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\uFEFF")))).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	rows := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, strings.Join(rec, ","))
	}
	return rows
}

func suspectsByReason(report *model.Report, reason string) []model.Suspect {
	var out []model.Suspect
	for _, s := range report.Suspects {
		if s.Reason == reason {
			out = append(out, s)
		}
	}
	return out
}

// collect drains every row of an opened source.
func collect(t *testing.T, in *sourceInput) []tabular.Row {
	t.Helper()
	rowCh, errCh := in.src.Stream(context.Background())
	var rows []tabular.Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}
