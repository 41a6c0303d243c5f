package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/model"
)

// ReportFile is the name of the report written to the output directory.
const ReportFile = "report.json"

// ReportPath returns where a run writing to outDir stores its report.
func ReportPath(outDir string) string {
	return filepath.Join(outDir, ReportFile)
}

func (r *runState) buildReport(contacts []*model.Contact, outputs []string) *model.Report {
	cfg := r.cfg
	counts := r.counts
	counts.Suspects = len(r.suspects)
	counts.PhonesUniqueTotal = len(r.unique)
	counts.DedupedContacts = len(contacts)
	counts.OutputFiles = len(outputs)

	warnings := []string{}
	if len(contacts) > cfg.ContactLimitWarn {
		warnings = append(warnings, fmt.Sprintf(
			"Total contacts %d exceeds warning threshold %d.", len(contacts), cfg.ContactLimitWarn))
	}
	if outputs == nil {
		outputs = []string{}
	}

	return &model.Report{
		SchemaVersion: model.ReportSchemaVersion,
		Params: model.ReportParams{
			DDIDefault:          cfg.DDIDefault,
			AssumeDDI:           cfg.AssumeDDI,
			BatchSize:           cfg.BatchSize,
			Label:               cfg.Label,
			PhonePrefixPlus:     cfg.PhonePrefixPlus,
			MinPhoneLen:         cfg.MinPhoneLen,
			MaxPhoneLen:         cfg.MaxPhoneLen,
			DedupeEnabled:       cfg.DedupeEnabled,
			TreatDotAsEmpty:     cfg.TreatDotAsEmpty,
			ProtectGoodName:     cfg.ProtectGoodName,
			RenamePhoneLikeName: cfg.RenamePhoneLikeNames,
			ExplodePhones:       cfg.ExplodePhones,
			FallbackPrefix:      cfg.FallbackPrefix,
			DryRun:              r.dryRun,
		},
		Inputs:   r.inputs,
		Counts:   counts,
		Outputs:  outputs,
		Warnings: warnings,
		Suspects: r.suspects,
	}
}

// WriteReport persists report as indented UTF-8 JSON under outDir.
func WriteReport(outDir string, report *model.Report) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create output dir %s", outDir)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return eris.Wrap(err, "pipeline: encode report")
	}

	path := ReportPath(outDir)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write report %s", path)
	}
	return nil
}

// ReadReport loads a report previously written by WriteReport.
func ReadReport(path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read report %s", path)
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, eris.Wrapf(err, "pipeline: decode report %s", path)
	}
	return &report, nil
}

// Summary renders the headline counts of a report for humans.
func Summary(report *model.Report) string {
	var b strings.Builder
	c := report.Counts

	b.WriteString("Run summary:\n")
	fmt.Fprintf(&b, "- Rows read: %d (crm %d, google %d)\n", c.TotalRows, c.CRMRows, c.GoogleRows)
	fmt.Fprintf(&b, "- Without phone: %d\n", c.WithoutPhone)
	fmt.Fprintf(&b, "- Contacts exploded: %d\n", c.ContactsExplodedTotal)
	fmt.Fprintf(&b, "- Duplicates merged: %d\n", c.DuplicatesMerged)
	fmt.Fprintf(&b, "- Final contacts: %d\n", c.DedupedContacts)
	fmt.Fprintf(&b, "- Names rewritten: %d\n", c.NamesRewritten)
	fmt.Fprintf(&b, "- Suspects: %d\n", c.Suspects)
	fmt.Fprintf(&b, "- Files written: %d\n", c.OutputFiles)
	if report.Params.DryRun {
		b.WriteString("- Dry run: no files written\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
