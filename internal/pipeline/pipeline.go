// Package pipeline reconciles CRM and Google contact exports into deduplicated
// Google Contacts import files and a machine-readable run report.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/export"
	"github.com/sells-group/contacts-cli/internal/merge"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/names"
	"github.com/sells-group/contacts-cli/internal/schema"
	"github.com/sells-group/contacts-cli/internal/tabular"
	"github.com/sells-group/contacts-cli/internal/textcheck"
)

// ErrCancelled is returned by Run when the caller requested cancellation.
// No report is written for a cancelled run.
var ErrCancelled = errors.New("pipeline: cancelled")

// ProgressFunc receives a completion percentage and a stage label.
type ProgressFunc func(percent int, label string)

// Params describes one run.
type Params struct {
	CRMPath    string
	GooglePath string
	OutDir     string
	Overrides  model.ColumnOverrides
	DryRun     bool

	// OnProgress is optional. ShouldCancel is polled before every row and
	// before the write phase, alongside ctx.
	OnProgress    ProgressFunc
	ShouldCancel  func() bool
	ProgressEvery int
}

// Pipeline runs the reconciliation. A Pipeline executes one run at a time;
// Status may be read concurrently.
type Pipeline struct {
	cfg      config.PipelineConfig
	analyzer *textcheck.Analyzer
	policy   merge.Policy

	mu     sync.RWMutex
	status model.RunStatus
}

// New creates a Pipeline. A nil analyzer runs pattern-only mojibake detection.
func New(cfg config.PipelineConfig, analyzer *textcheck.Analyzer) *Pipeline {
	if analyzer == nil {
		analyzer = textcheck.New(nil)
	}
	return &Pipeline{
		cfg:      cfg,
		analyzer: analyzer,
		policy: merge.Policy{
			TreatDotAsEmpty: cfg.TreatDotAsEmpty,
			ProtectGoodName: cfg.ProtectGoodName,
		},
		status: model.RunStatusIdle,
	}
}

// Status returns the current run state.
func (p *Pipeline) Status() model.RunStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Pipeline) setStatus(s model.RunStatus) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
	zap.L().Debug("pipeline: status", zap.String("status", string(s)))
}

// Run executes the full reconciliation and persists report.json under OutDir.
func (p *Pipeline) Run(ctx context.Context, params Params) (*model.Report, error) {
	report, err := p.run(ctx, params)
	switch {
	case errors.Is(err, ErrCancelled):
		p.setStatus(model.RunStatusCancelled)
		zap.L().Info("pipeline: cancelled")
	case err != nil:
		p.setStatus(model.RunStatusFailed)
		zap.L().Error("pipeline: failed", zap.Error(err))
	default:
		p.setStatus(model.RunStatusDone)
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, params Params) (*model.Report, error) {
	log := zap.L().With(
		zap.String("crm", params.CRMPath),
		zap.String("google", params.GooglePath),
		zap.Bool("dry_run", params.DryRun),
	)

	p.setStatus(model.RunStatusValidating)
	if params.CRMPath == "" && params.GooglePath == "" {
		return nil, &schema.ConfigError{Role: "source", Msg: "at least one input file is required"}
	}
	if params.OutDir == "" {
		return nil, &schema.ConfigError{Role: "out_dir", Msg: "output directory is required"}
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := newRunState(p, params)
	inputs, err := r.openSources(params)
	if err != nil {
		return nil, err
	}
	if params.OnProgress != nil {
		if err := r.countRows(ctx, inputs); err != nil {
			return nil, err
		}
	}
	log.Info("pipeline: starting run", zap.Int("sources", len(inputs)))

	for _, in := range inputs {
		p.setStatus(in.status)
		if err := r.ingest(ctx, in); err != nil {
			return nil, err
		}
	}

	p.setStatus(model.RunStatusPostProcessing)
	contacts := r.finalContacts()
	if p.cfg.RenamePhoneLikeNames {
		for i, c := range contacts {
			if names.IsPhoneLike(c.Name) {
				c.Name = names.Fallback(p.cfg.FallbackPrefix, i+1, c.Phone)
				r.counts.NamesRewritten++
			}
		}
	}

	var outputs []string
	if !params.DryRun {
		if r.cancelled(ctx) {
			return nil, ErrCancelled
		}
		p.setStatus(model.RunStatusWriting)
		r.progress.stage(StageWriting)
		w := export.Writer{
			BatchSize:      p.cfg.BatchSize,
			PrefixPlus:     p.cfg.PhonePrefixPlus,
			GroupSeparator: p.cfg.GroupSeparator,
		}
		outputs, err = w.Write(contacts, params.OutDir)
		if err != nil {
			return nil, err
		}
	}
	r.progress.finish(StageDone)

	report := r.buildReport(contacts, outputs)
	if err := WriteReport(params.OutDir, report); err != nil {
		return nil, err
	}

	log.Info("pipeline: run complete",
		zap.Int("rows", report.Counts.TotalRows),
		zap.Int("contacts", report.Counts.DedupedContacts),
		zap.Int("duplicates_merged", report.Counts.DuplicatesMerged),
		zap.Int("suspects", report.Counts.Suspects),
		zap.Int("output_files", report.Counts.OutputFiles),
	)
	return report, nil
}

// sourceInput is one opened and resolved source in ingest order.
type sourceInput struct {
	kind   string
	src    *tabular.Source
	cols   model.ColumnMap
	status model.RunStatus
	stage  string
	total  int
}

// openSources opens and resolves every configured source, Google first.
func (r *runState) openSources(params Params) ([]*sourceInput, error) {
	var inputs []*sourceInput

	if params.GooglePath != "" {
		in, err := openSource(params.GooglePath, model.SourceGoogle, schema.NewGoogle())
		if err != nil {
			return nil, err
		}
		in.status, in.stage = model.RunStatusIngestingGoogle, StageGoogle
		r.inputs.Google = model.NewInputReport(in.src.Descriptor(), in.cols)
		inputs = append(inputs, in)
	}
	if params.CRMPath != "" {
		in, err := openSource(params.CRMPath, model.SourceCRM, schema.NewCRM(params.Overrides))
		if err != nil {
			return nil, err
		}
		in.status, in.stage = model.RunStatusIngestingCRM, StageCRM
		r.inputs.CRM = model.NewInputReport(in.src.Descriptor(), in.cols)
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func openSource(path, kind string, resolver schema.Resolver) (*sourceInput, error) {
	src, err := tabular.Open(path)
	if err != nil {
		return nil, err
	}
	cols, err := resolver.Resolve(src.Headers())
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: resolve %s columns", kind)
	}
	desc := src.Descriptor()
	zap.L().Info("pipeline: source opened",
		zap.String("source", kind),
		zap.String("path", path),
		zap.String("encoding", desc.Encoding),
		zap.String("delimiter", desc.Delimiter),
		zap.Bool("used_fallback", desc.UsedFallback),
		zap.Strings("phone_columns", cols.Phones),
	)
	return &sourceInput{kind: kind, src: src, cols: cols}, nil
}

// countRows sizes every source for progress reporting. A cancel during the
// pass is reported as ErrCancelled.
func (r *runState) countRows(ctx context.Context, inputs []*sourceInput) error {
	for _, in := range inputs {
		if r.cancelled(ctx) {
			return ErrCancelled
		}
		n, err := in.src.Count(ctx)
		if err != nil {
			if r.cancelled(ctx) {
				return ErrCancelled
			}
			return err
		}
		in.total = n
		r.progress.total += n
	}
	return nil
}

// finalContacts returns the contacts sorted by phone.
func (r *runState) finalContacts() []*model.Contact {
	if r.index != nil {
		return r.index.Values()
	}
	out := r.list
	sort.SliceStable(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out
}
