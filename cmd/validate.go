package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/pipeline"
)

var (
	validateCRM      string
	validateGoogle   string
	validateColumns  string
	validateColFlags model.ColumnOverrides
	validatePreview  int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Resolve columns and preview inputs without running",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := resolveOverrides(validateColFlags, validateColumns)
		if err != nil {
			return err
		}

		previewLimit := cfg.Validate.PreviewLimit
		if cmd.Flags().Changed("preview") {
			previewLimit = validatePreview
		}

		v, err := newPipeline(cfg.Pipeline).Validate(cmd.Context(), pipeline.ValidateParams{
			CRMPath:            validateCRM,
			GooglePath:         validateGoogle,
			Overrides:          overrides,
			PreviewLimit:       previewLimit,
			FastScanLimitBytes: cfg.Validate.FastScanLimitBytes,
		})
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
}

func init() {
	addSourceFlags(validateCmd.Flags(), &validateCRM, &validateGoogle, &validateColumns, &validateColFlags)
	validateCmd.Flags().IntVar(&validatePreview, "preview", 50, "number of preview rows")
	rootCmd.AddCommand(validateCmd)
}
