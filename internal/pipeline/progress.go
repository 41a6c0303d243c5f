package pipeline

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/sells-group/contacts-cli/internal/config"
)

// Stage labels reported through the progress callback.
const (
	StageGoogle  = "Processando Google"
	StageCRM     = "Processando CRM"
	StageWriting = "Escrevendo CSVs"
	StageDone    = "Concluído"
)

// DefaultProgressEvery is the row interval between progress callbacks.
const DefaultProgressEvery = 200

// progress reports row counts to an optional callback. Row ticks fire every
// `every` rows and, when an interval is configured, at most once per interval.
// Stage boundaries always fire.
type progress struct {
	fn        ProgressFunc
	every     int
	total     int
	processed int
	sometimes *rate.Sometimes
}

func newProgress(fn ProgressFunc, every int, cfg config.PipelineConfig) *progress {
	if every <= 0 {
		every = cfg.ProgressEvery
	}
	if every <= 0 {
		every = DefaultProgressEvery
	}
	pr := &progress{fn: fn, every: every}
	if cfg.ProgressInterval > 0 {
		pr.sometimes = &rate.Sometimes{Interval: cfg.ProgressInterval}
	}
	return pr
}

func (pr *progress) tick(stage string) {
	pr.processed++
	if pr.fn == nil || pr.processed%pr.every != 0 {
		return
	}
	if pr.sometimes != nil {
		pr.sometimes.Do(func() { pr.emit(stage) })
		return
	}
	pr.emit(stage)
}

func (pr *progress) stage(stage string) {
	if pr.fn != nil {
		pr.emit(stage)
	}
}

// finish reports 100% with the final label.
func (pr *progress) finish(stage string) {
	if pr.fn == nil {
		return
	}
	pr.processed = pr.total
	pr.emit(stage)
}

func (pr *progress) emit(stage string) {
	percent := 0
	if pr.total > 0 {
		percent = pr.processed * 100 / pr.total
	}
	pr.fn(percent, fmt.Sprintf("%s: %d/%d", stage, pr.processed, pr.total))
}
