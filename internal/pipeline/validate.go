package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/schema"
)

// ValidateParams describes a pre-flight check of the run inputs.
type ValidateParams struct {
	CRMPath            string
	GooglePath         string
	Overrides          model.ColumnOverrides
	PreviewLimit       int
	FastScanLimitBytes int64
}

// PreviewRow is one raw row shown before a run.
type PreviewRow struct {
	Name    string `json:"name"`
	DDI     string `json:"ddi"`
	Phone   string `json:"phone"`
	Tags    string `json:"tags"`
	Created string `json:"created"`
}

// SourceScan holds the counters of a full pass over one source. Nil when the
// scan was skipped because the file exceeded the fast-scan limit.
type SourceScan struct {
	Lines        int `json:"line_count"`
	WithoutPhone int `json:"without_phone"`
	Duplicates   int `json:"duplicates"`
}

// Validation is the pre-flight result.
type Validation struct {
	CRM                *model.InputReport `json:"crm"`
	Google             *model.InputReport `json:"google"`
	CRMScan            *SourceScan        `json:"crm_scan"`
	GoogleScan         *SourceScan        `json:"google_scan"`
	PreviewRows        []PreviewRow       `json:"preview_rows"`
	PreviewHasMojibake bool               `json:"preview_has_mojibake"`
}

type sourceCheck struct {
	info    *model.InputReport
	scan    *SourceScan
	preview []PreviewRow
}

// Validate resolves both sources and scans them concurrently. The preview shows
// CRM rows, or Google rows when no CRM source is given.
func (p *Pipeline) Validate(ctx context.Context, params ValidateParams) (*Validation, error) {
	if params.CRMPath == "" && params.GooglePath == "" {
		return nil, &schema.ConfigError{Role: "source", Msg: "at least one input file is required"}
	}

	var crm, google *sourceCheck
	g, gctx := errgroup.WithContext(ctx)
	if params.CRMPath != "" {
		g.Go(func() error {
			var err error
			crm, err = p.checkSource(gctx, params.CRMPath, model.SourceCRM, schema.NewCRM(params.Overrides),
				params.FastScanLimitBytes, false, params.PreviewLimit)
			return err
		})
	}
	if params.GooglePath != "" {
		previewLimit := 0
		if params.CRMPath == "" {
			previewLimit = params.PreviewLimit
		}
		g.Go(func() error {
			var err error
			google, err = p.checkSource(gctx, params.GooglePath, model.SourceGoogle, schema.NewGoogle(),
				params.FastScanLimitBytes, params.CRMPath == "", previewLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v := &Validation{PreviewRows: []PreviewRow{}}
	if crm != nil {
		v.CRM, v.CRMScan, v.PreviewRows = crm.info, crm.scan, crm.preview
	}
	if google != nil {
		v.Google, v.GoogleScan = google.info, google.scan
		if crm == nil {
			v.PreviewRows = google.preview
		}
	}
	for _, row := range v.PreviewRows {
		if p.analyzer.Analyze(row.Name).Suspect {
			v.PreviewHasMojibake = true
			break
		}
	}

	zap.L().Info("pipeline: validation complete",
		zap.Bool("crm", v.CRM != nil),
		zap.Bool("google", v.Google != nil),
		zap.Int("preview_rows", len(v.PreviewRows)),
		zap.Bool("preview_has_mojibake", v.PreviewHasMojibake),
	)
	return v, nil
}

func (p *Pipeline) checkSource(ctx context.Context, path, kind string, resolver schema.Resolver, limit int64, forceScan bool, previewLimit int) (*sourceCheck, error) {
	in, err := openSource(path, kind, resolver)
	if err != nil {
		return nil, err
	}
	check := &sourceCheck{info: model.NewInputReport(in.src.Descriptor(), in.cols)}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: stat %s", path)
	}
	if forceScan || limit <= 0 || fi.Size() <= limit {
		if check.scan, err = p.scanSource(ctx, in); err != nil {
			return nil, err
		}
	}

	if previewLimit > 0 {
		if check.preview, err = previewSource(ctx, in, previewLimit); err != nil {
			return nil, err
		}
	}
	return check, nil
}

// scanSource counts rows, rows without a usable phone and phones repeated
// within the file.
func (p *Pipeline) scanSource(ctx context.Context, in *sourceInput) (*SourceScan, error) {
	scan := &SourceScan{}
	seen := make(map[string]struct{})

	rowCh, errCh := in.src.Stream(ctx)
	for row := range rowCh {
		scan.Lines++
		ddi := ""
		if in.kind == model.SourceCRM {
			ddi = strings.TrimSpace(row.Get(in.cols.DDI))
		}
		entries, _ := normalizePhones(p.cfg, phoneValues(row, in.cols.Phones), ddi)
		used := usedPhones(p.cfg, entries)
		if len(used) == 0 {
			scan.WithoutPhone++
			continue
		}
		for _, e := range used {
			if _, dup := seen[e.Normalized]; dup {
				scan.Duplicates++
				continue
			}
			seen[e.Normalized] = struct{}{}
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return scan, nil
}

func previewSource(ctx context.Context, in *sourceInput, limit int) ([]PreviewRow, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make([]PreviewRow, 0, limit)
	rowCh, errCh := in.src.Stream(ctx)
	for row := range rowCh {
		var pr PreviewRow
		if in.kind == model.SourceGoogle {
			ri := googleRow(row, in.cols)
			pr.Name = ri.rawName
			if len(ri.rawPhones) > 0 {
				pr.Phone = ri.rawPhones[0]
			}
		} else {
			pr = PreviewRow{
				Name:    strings.TrimSpace(row.Get(in.cols.Name)),
				DDI:     strings.TrimSpace(row.Get(in.cols.DDI)),
				Tags:    strings.TrimSpace(row.Get(in.cols.Tags)),
				Created: strings.TrimSpace(row.Get(in.cols.Created)),
			}
			if phones := phoneValues(row, in.cols.Phones); len(phones) > 0 {
				pr.Phone = phones[0]
			}
		}
		rows = append(rows, pr)
		if len(rows) >= limit {
			return rows, nil
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}
