package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/pipeline"
	"github.com/sells-group/contacts-cli/internal/schema"
	"github.com/sells-group/contacts-cli/internal/textcheck"
)

// newPipeline builds a Pipeline for one run. Mojibake repair suggestions are
// enabled by pipeline.repair_mojibake.
func newPipeline(pc config.PipelineConfig) *pipeline.Pipeline {
	var repairer textcheck.Repairer
	if pc.RepairMojibake {
		repairer = textcheck.NewCharmapRepairer()
	}
	return pipeline.New(pc, textcheck.New(repairer))
}

// resolveOverrides layers column overrides: explicit values first, then the
// YAML profile, then the config file's columns section.
func resolveOverrides(explicit model.ColumnOverrides, profilePath string) (model.ColumnOverrides, error) {
	base := model.ColumnOverrides{}
	if cfg != nil {
		base = cfg.Columns.ColumnOverrides
		if profilePath == "" {
			profilePath = cfg.Columns.Profile
		}
	}
	if profilePath != "" {
		profile, err := schema.LoadProfile(profilePath)
		if err != nil {
			return model.ColumnOverrides{}, eris.Wrap(err, "load column profile")
		}
		base = profile.Merge(base)
	}
	return explicit.Merge(base), nil
}
