package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/contacts-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Request:   model.RunRequest{CRMPath: "/data/crm.csv", GooglePath: "/data/google.csv"},
			Status:    model.RunStatusDone,
			Report:    &model.Report{Counts: model.Counts{DedupedContacts: 42}},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Request:   model.RunRequest{GooglePath: "/data/google.csv", DryRun: true},
			Status:    model.RunStatusIngestingGoogle,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "INPUTS")
	assert.Contains(t, output, "crm.csv+google.csv")
	assert.Contains(t, output, "done")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "ingesting_google (dry)")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-")
}

func TestInputsLabel_Truncates(t *testing.T) {
	label := inputsLabel(model.RunRequest{CRMPath: "/x/a_very_long_crm_export_name_2025.csv"})
	assert.Len(t, label, 30)
	assert.True(t, len(label) > 3 && label[27:] == "...")
	assert.Empty(t, inputsLabel(model.RunRequest{}))
}

func TestComputeRunStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{Status: model.RunStatusDone, CreatedAt: now, UpdatedAt: now.Add(10 * time.Second),
			Report: &model.Report{Counts: model.Counts{DedupedContacts: 5, Suspects: 1}}},
		{Status: model.RunStatusDone, CreatedAt: now, UpdatedAt: now.Add(30 * time.Second),
			Report: &model.Report{Counts: model.Counts{DedupedContacts: 7}}},
		{Status: model.RunStatusFailed},
		{Status: model.RunStatusCancelled},
		{Status: model.RunStatusWriting},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Done)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 12, s.Contacts)
	assert.Equal(t, 1, s.Suspects)
	assert.InDelta(t, 20.0, s.AvgDurSecs, 0.001)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	assert.Contains(t, buf.String(), "Avg duration:")
	assert.Contains(t, buf.String(), "20.0s")
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Zero(t, s.Total)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	assert.NotContains(t, buf.String(), "Avg duration")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
