package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/pipeline"
	"github.com/sells-group/contacts-cli/internal/store"
)

func runRequest(params pipeline.Params) model.RunRequest {
	return model.RunRequest{
		CRMPath:    params.CRMPath,
		GooglePath: params.GooglePath,
		OutDir:     params.OutDir,
		DryRun:     params.DryRun,
		Overrides:  params.Overrides,
	}
}

// beginRun records a new run. A nil store disables history.
func beginRun(ctx context.Context, st store.Store, params pipeline.Params) (*model.Run, error) {
	if st == nil {
		return nil, nil
	}
	run, err := st.CreateRun(ctx, runRequest(params))
	if err != nil {
		return nil, err
	}
	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusValidating); err != nil {
		return nil, err
	}
	run.Status = model.RunStatusValidating
	return run, nil
}

// finishRun stores the terminal state of a run. Store errors are only logged.
func finishRun(ctx context.Context, st store.Store, run *model.Run, report *model.Report, runErr error) {
	if st == nil || run == nil {
		return
	}
	// The run context may already be cancelled.
	ctx = context.WithoutCancel(ctx)

	var err error
	switch {
	case runErr == nil:
		err = st.UpdateRunResult(ctx, run.ID, report)
	case errors.Is(runErr, pipeline.ErrCancelled):
		err = st.FailRun(ctx, run.ID, model.RunStatusCancelled, runErr.Error())
	default:
		err = st.FailRun(ctx, run.ID, model.RunStatusFailed, runErr.Error())
	}
	if err != nil {
		zap.L().Warn("history: record run outcome failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}
