package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/merge"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/names"
	"github.com/sells-group/contacts-cli/internal/phone"
	"github.com/sells-group/contacts-cli/internal/tabular"
)

// phoneValueSep separates several phones packed into one cell.
const phoneValueSep = ":::"

// runState holds the mutable state of a single run.
type runState struct {
	p            *Pipeline
	cfg          config.PipelineConfig
	shouldCancel func() bool
	dryRun       bool
	progress     *progress

	inputs   model.Inputs
	counts   model.Counts
	suspects []model.Suspect
	unique   map[string]struct{}

	index *merge.Index
	list  []*model.Contact
}

func newRunState(p *Pipeline, params Params) *runState {
	r := &runState{
		p:            p,
		cfg:          p.cfg,
		shouldCancel: params.ShouldCancel,
		dryRun:       params.DryRun,
		progress:     newProgress(params.OnProgress, params.ProgressEvery, p.cfg),
		suspects:     []model.Suspect{},
		unique:       make(map[string]struct{}),
	}
	if p.cfg.DedupeEnabled {
		r.index = merge.NewIndex(p.policy)
	}
	return r
}

func (r *runState) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return r.shouldCancel != nil && r.shouldCancel()
}

// rowInput is the source-independent view of one row.
type rowInput struct {
	line      int
	rawName   string
	rawDDI    string
	rawPhones []string
	labels    []string
	notes     []string
}

func (r *runState) ingest(ctx context.Context, in *sourceInput) error {
	r.progress.stage(in.stage)

	rowCh, errCh := in.src.Stream(ctx)
	for row := range rowCh {
		if r.cancelled(ctx) {
			return ErrCancelled
		}

		var ri rowInput
		if in.kind == model.SourceGoogle {
			ri = googleRow(row, in.cols)
			r.counts.GoogleRows++
		} else {
			ri = r.crmRow(row, in.cols)
			r.counts.CRMRows++
		}
		r.counts.TotalRows++
		r.addRow(in.kind, ri)

		r.progress.tick(in.stage)
	}
	if err := <-errCh; err != nil {
		if r.cancelled(ctx) {
			return ErrCancelled
		}
		return err
	}
	return nil
}

func googleRow(row tabular.Row, cols model.ColumnMap) rowInput {
	name := strings.TrimSpace(row.Get(cols.Name))
	if name == "" {
		var parts []string
		for _, h := range []string{cols.GivenName, cols.FamilyName} {
			if v := strings.TrimSpace(row.Get(h)); v != "" {
				parts = append(parts, v)
			}
		}
		name = strings.Join(parts, " ")
	}
	return rowInput{
		line:      row.Line,
		rawName:   name,
		rawPhones: phoneValues(row, cols.Phones),
	}
}

func (r *runState) crmRow(row tabular.Row, cols model.ColumnMap) rowInput {
	ri := rowInput{
		line:      row.Line,
		rawName:   strings.TrimSpace(row.Get(cols.Name)),
		rawDDI:    strings.TrimSpace(row.Get(cols.DDI)),
		rawPhones: phoneValues(row, cols.Phones),
	}
	if r.cfg.Label != "" {
		ri.labels = append(ri.labels, r.cfg.Label)
	}
	if cols.Labels != "" {
		ri.labels = append(ri.labels, parseLabels(row.Get(cols.Labels), r.cfg.GroupSeparator)...)
	}
	ri.notes = crmNotes(row, cols)
	return ri
}

// phoneValues collects the non-blank phone values of every phone column in order.
func phoneValues(row tabular.Row, columns []string) []string {
	var out []string
	for _, h := range columns {
		out = append(out, phone.SplitValues(row.Get(h), phoneValueSep)...)
	}
	return out
}

// parseLabels splits on the group separator when present, else on commas.
func parseLabels(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var parts []string
	switch {
	case sep != "" && strings.Contains(raw, sep):
		parts = strings.Split(raw, sep)
	case strings.Contains(raw, ","):
		parts = strings.Split(raw, ",")
	default:
		parts = []string{raw}
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// crmNotes carries the free-text notes plus tag and creation-date lines.
func crmNotes(row tabular.Row, cols model.ColumnMap) []string {
	var notes []string
	if v := strings.TrimSpace(row.Get(cols.Notes)); v != "" {
		notes = append(notes, v)
	}
	if cols.Tags != "" && cols.Tags != cols.Labels {
		if v := strings.TrimSpace(row.Get(cols.Tags)); v != "" {
			notes = append(notes, "Tags: "+v)
		}
	}
	if v := strings.TrimSpace(row.Get(cols.Created)); v != "" {
		notes = append(notes, "Created: "+v)
	}
	return notes
}

// normalizePhones normalizes, counts, dedupes and sorts the raw values of a row.
// found counts every non-empty normalized value before deduplication.
func normalizePhones(cfg config.PipelineConfig, raw []string, overrideDDI string) (entries []model.PhoneEntry, found int) {
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		n := phone.Normalize(v, cfg.DDIDefault, cfg.AssumeDDI, overrideDDI, cfg.MinPhoneLen)
		if n == "" {
			continue
		}
		found++
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		entries = append(entries, model.PhoneEntry{Raw: v, Normalized: n})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Normalized < entries[j].Normalized })
	return entries, found
}

// usedPhones applies the explode setting.
func usedPhones(cfg config.PipelineConfig, entries []model.PhoneEntry) []model.PhoneEntry {
	if !cfg.ExplodePhones && len(entries) > 1 {
		return entries[:1]
	}
	return entries
}

func (r *runState) addRow(kind string, ri rowInput) {
	entries, found := normalizePhones(r.cfg, ri.rawPhones, ri.rawDDI)
	r.counts.PhonesFoundTotal += found
	for _, e := range entries {
		r.unique[e.Normalized] = struct{}{}
	}
	used := usedPhones(r.cfg, entries)
	r.counts.ContactsExplodedTotal += len(used)

	mojibake := r.p.analyzer.Analyze(ri.rawName)

	if len(used) == 0 {
		r.counts.WithoutPhone++
		if mojibake.Suspect {
			r.addMojibakeSuspect(kind, ri, model.PhoneEntry{}, mojibake.SuggestedFix, mojibake.Badness)
		}
		return
	}

	name := names.Clean(ri.rawName, r.cfg.TreatDotAsEmpty)
	for _, e := range used {
		if l := len(e.Normalized); l < r.cfg.MinPhoneLen || l > r.cfg.MaxPhoneLen {
			r.suspects = append(r.suspects, model.Suspect{
				Reason:          model.ReasonPhoneLength,
				Source:          kind,
				RawPhone:        e.Raw,
				NormalizedPhone: e.Normalized,
				Name:            ri.rawName,
				Line:            ri.line,
			})
		}
		if mojibake.Suspect {
			r.addMojibakeSuspect(kind, ri, e, mojibake.SuggestedFix, mojibake.Badness)
		}

		c := model.NewContact(name, e.Normalized)
		for _, n := range ri.notes {
			c.AddNote(n)
		}
		for _, l := range ri.labels {
			c.AddLabel(l)
		}
		c.AddSource(kind)

		if r.index != nil {
			if r.index.Add(c) {
				r.counts.DuplicatesMerged++
			}
		} else {
			r.list = append(r.list, c)
		}
	}
}

func (r *runState) addMojibakeSuspect(kind string, ri rowInput, e model.PhoneEntry, fix string, badness *float64) {
	r.suspects = append(r.suspects, model.Suspect{
		Reason:          model.ReasonNameMojibake,
		Source:          kind,
		RawPhone:        e.Raw,
		NormalizedPhone: e.Normalized,
		Name:            ri.rawName,
		Line:            ri.line,
		SuggestedFix:    &fix,
		Badness:         badness,
	})
}
