package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/schema"
)

func TestValidate_CRMAndGoogle(t *testing.T) {
	dir := t.TempDir()
	crm := writeCSV(t, dir, "crm.csv",
		"Nome,Telefone,DDI,Tags,Criado em",
		"Ana,11987654321,,vip,2024-01-01",
		"Bia,(11) 98765-4321,,,",
		"Caio,,,,",
		"JoÃ£o,911112222 ::: 11922223333,351,,",
	)
	google := writeCSV(t, dir, "google.csv",
		"Name,Phone 1 - Value,Phone 2 - Value",
		"Duda,11900001111,11900001111",
		"Eli,,",
	)

	v, err := newTestPipeline().Validate(context.Background(), ValidateParams{
		CRMPath:            crm,
		GooglePath:         google,
		PreviewLimit:       3,
		FastScanLimitBytes: 1 << 20,
	})
	require.NoError(t, err)

	require.NotNil(t, v.CRM)
	require.NotNil(t, v.Google)
	assert.Equal(t, "Telefone", v.CRM.Columns.Phone)
	assert.Equal(t, "utf-8-sig", v.CRM.Encoding)

	require.NotNil(t, v.CRMScan)
	assert.Equal(t, SourceScan{Lines: 4, WithoutPhone: 1, Duplicates: 1}, *v.CRMScan)
	require.NotNil(t, v.GoogleScan)
	assert.Equal(t, SourceScan{Lines: 2, WithoutPhone: 1, Duplicates: 0}, *v.GoogleScan)

	// CRM preview only, capped at the limit.
	require.Len(t, v.PreviewRows, 3)
	assert.Equal(t, PreviewRow{Name: "Ana", Phone: "11987654321", Tags: "vip", Created: "2024-01-01"}, v.PreviewRows[0])
	assert.Equal(t, "Caio", v.PreviewRows[2].Name)
	assert.Empty(t, v.PreviewRows[2].Phone)
	assert.False(t, v.PreviewHasMojibake)
}

func TestValidate_PreviewFlagsMojibake(t *testing.T) {
	dir := t.TempDir()
	crm := writeCSV(t, dir, "crm.csv", "Nome,Telefone,DDI", "JoÃ£o,911112222 ::: 11922223333,351")

	v, err := newTestPipeline().Validate(context.Background(), ValidateParams{CRMPath: crm, PreviewLimit: 50})
	require.NoError(t, err)
	require.Len(t, v.PreviewRows, 1)
	assert.Equal(t, "351", v.PreviewRows[0].DDI)
	assert.Equal(t, "911112222", v.PreviewRows[0].Phone)
	assert.True(t, v.PreviewHasMojibake)
}

func TestValidate_GoogleOnlyPreviewAndForcedScan(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"Given Name,Family Name,Phone 1 - Value"}
	for i := range 10 {
		lines = append(lines, fmt.Sprintf("Nome%d,Sobrenome,1190000%04d", i, i))
	}
	google := writeCSV(t, dir, "google.csv", lines...)

	v, err := newTestPipeline().Validate(context.Background(), ValidateParams{
		GooglePath:         google,
		PreviewLimit:       50,
		FastScanLimitBytes: 1, // exceeded, but Google is scanned when it is the only source
	})
	require.NoError(t, err)
	assert.Nil(t, v.CRM)
	assert.Nil(t, v.CRMScan)
	require.NotNil(t, v.GoogleScan)
	assert.Equal(t, 10, v.GoogleScan.Lines)

	require.Len(t, v.PreviewRows, 10)
	assert.Equal(t, PreviewRow{Name: "Nome0 Sobrenome", Phone: "11900000000"}, v.PreviewRows[0])
}

func TestValidate_FastScanLimitSkipsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	crm := writeCSV(t, dir, "crm.csv", "Nome,Telefone", "Ana,11987654321")
	google := writeCSV(t, dir, "google.csv", "Name,Phone 1 - Value", "Bia,11987654322")

	v, err := newTestPipeline().Validate(context.Background(), ValidateParams{
		CRMPath:            crm,
		GooglePath:         google,
		PreviewLimit:       50,
		FastScanLimitBytes: 1,
	})
	require.NoError(t, err)
	assert.Nil(t, v.CRMScan)
	assert.Nil(t, v.GoogleScan)
	require.Len(t, v.PreviewRows, 1)
	assert.Equal(t, "Ana", v.PreviewRows[0].Name)
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()
	crm := writeCSV(t, dir, "crm.csv", "Nome,Telefone", "Ana,11987654321")
	p := newTestPipeline()

	_, err := p.Validate(context.Background(), ValidateParams{})
	var cfgErr *schema.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "source", cfgErr.Role)

	_, err = p.Validate(context.Background(), ValidateParams{
		CRMPath:   crm,
		Overrides: model.ColumnOverrides{Name: "Cliente"},
	})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "name", cfgErr.Role)

	_, err = p.Validate(context.Background(), ValidateParams{GooglePath: filepath.Join(dir, "missing.csv")})
	require.Error(t, err)
}
