package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/pipeline"
	"github.com/sells-group/contacts-cli/internal/store"
)

var (
	runCRM      string
	runGoogle   string
	runOut      string
	runDryRun   bool
	runColumns  string
	runHistory  bool
	runQuiet    bool
	runColFlags model.ColumnOverrides
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile CRM and Google exports into import batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pc := cfg.Pipeline
		applyPipelineFlags(cmd.Flags(), &pc)

		overrides, err := resolveOverrides(runColFlags, runColumns)
		if err != nil {
			return err
		}

		params := pipeline.Params{
			CRMPath:    runCRM,
			GooglePath: runGoogle,
			OutDir:     runOut,
			Overrides:  overrides,
			DryRun:     runDryRun,
		}
		if !runQuiet {
			params.OnProgress = progressPrinter(os.Stderr)
		}

		var st store.Store
		if runHistory {
			if st, err = openStore(ctx); err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		run, err := beginRun(ctx, st, params)
		if err != nil {
			return eris.Wrap(err, "record run")
		}

		report, err := newPipeline(pc).Run(ctx, params)
		finishRun(ctx, st, run, report, err)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if run != nil {
			zap.L().Info("run recorded", zap.String("run_id", run.ID))
		}
		fmt.Fprintln(os.Stdout, pipeline.Summary(report))
		return nil
	},
}

// progressPrinter renders progress callbacks as a single updating line.
func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	return func(percent int, label string) {
		fmt.Fprintf(w, "\r[%3d%%] %s", percent, label)
		if percent >= 100 {
			fmt.Fprintln(w)
		}
	}
}

// addPipelineFlags registers flags mirroring the pipeline configuration.
// Only flags set on the command line override the config file.
func addPipelineFlags(fs *pflag.FlagSet) {
	d := config.DefaultPipeline()
	fs.String("ddi-default", d.DDIDefault, "country code prepended to national numbers")
	fs.Bool("assume-ddi", d.AssumeDDI, "prepend the default DDI when the number does not start with it")
	fs.Int("batch-size", d.BatchSize, "contacts per output file")
	fs.String("label", d.Label, "label attached to CRM contacts")
	fs.Bool("phone-prefix-plus", d.PhonePrefixPlus, "write phones with a leading +")
	fs.Int("min-phone-len", d.MinPhoneLen, "minimum normalized phone length")
	fs.Int("max-phone-len", d.MaxPhoneLen, "maximum normalized phone length")
	fs.String("group-separator", d.GroupSeparator, "separator for multi-valued labels")
	fs.Int("contact-limit-warn", d.ContactLimitWarn, "warn when final contacts exceed this count")
	fs.Bool("dedupe", d.DedupeEnabled, "merge contacts sharing a phone")
	fs.Bool("treat-dot-as-empty", d.TreatDotAsEmpty, "treat \".\" names as empty")
	fs.Bool("protect-good-name", d.ProtectGoodName, "keep a good name when a worse one merges in")
	fs.Bool("rename-phone-like-names", d.RenamePhoneLikeNames, "replace empty or phone-like names with a fallback")
	fs.Bool("explode-phones", d.ExplodePhones, "create one contact per phone")
	fs.String("fallback-prefix", d.FallbackPrefix, "prefix for generated fallback names")
	fs.Bool("repair-mojibake", d.RepairMojibake, "suggest fixes for mis-decoded names")
}

func applyPipelineFlags(fs *pflag.FlagSet, pc *config.PipelineConfig) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "ddi-default":
			pc.DDIDefault, _ = fs.GetString(f.Name)
		case "assume-ddi":
			pc.AssumeDDI, _ = fs.GetBool(f.Name)
		case "batch-size":
			pc.BatchSize, _ = fs.GetInt(f.Name)
		case "label":
			pc.Label, _ = fs.GetString(f.Name)
		case "phone-prefix-plus":
			pc.PhonePrefixPlus, _ = fs.GetBool(f.Name)
		case "min-phone-len":
			pc.MinPhoneLen, _ = fs.GetInt(f.Name)
		case "max-phone-len":
			pc.MaxPhoneLen, _ = fs.GetInt(f.Name)
		case "group-separator":
			pc.GroupSeparator, _ = fs.GetString(f.Name)
		case "contact-limit-warn":
			pc.ContactLimitWarn, _ = fs.GetInt(f.Name)
		case "dedupe":
			pc.DedupeEnabled, _ = fs.GetBool(f.Name)
		case "treat-dot-as-empty":
			pc.TreatDotAsEmpty, _ = fs.GetBool(f.Name)
		case "protect-good-name":
			pc.ProtectGoodName, _ = fs.GetBool(f.Name)
		case "rename-phone-like-names":
			pc.RenamePhoneLikeNames, _ = fs.GetBool(f.Name)
		case "explode-phones":
			pc.ExplodePhones, _ = fs.GetBool(f.Name)
		case "fallback-prefix":
			pc.FallbackPrefix, _ = fs.GetString(f.Name)
		case "repair-mojibake":
			pc.RepairMojibake, _ = fs.GetBool(f.Name)
		}
	})
}

// addSourceFlags registers the input and column override flags shared by run and validate.
func addSourceFlags(fs *pflag.FlagSet, crm, google, columns *string, cols *model.ColumnOverrides) {
	fs.StringVar(crm, "crm", "", "CRM export (csv or xlsx)")
	fs.StringVar(google, "google", "", "Google Contacts export (csv)")
	fs.StringVar(columns, "columns", "", "YAML column profile")
	fs.StringVar(&cols.Name, "col-name", "", "CRM name column")
	fs.StringVar(&cols.Phone, "col-phone", "", "CRM phone column")
	fs.StringVar(&cols.DDI, "col-ddi", "", "CRM country code column")
	fs.StringVar(&cols.Tags, "col-tags", "", "CRM tags column")
	fs.StringVar(&cols.Created, "col-created", "", "CRM creation date column")
	fs.StringVar(&cols.Notes, "col-notes", "", "CRM notes column")
	fs.StringVar(&cols.Labels, "col-labels", "", "CRM labels column")
}

func init() {
	addSourceFlags(runCmd.Flags(), &runCRM, &runGoogle, &runColumns, &runColFlags)
	runCmd.Flags().StringVar(&runOut, "out", "", "output directory (required)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "compute the report without writing batch files")
	runCmd.Flags().BoolVar(&runHistory, "history", true, "record the run in the history store")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "hide progress output")
	addPipelineFlags(runCmd.Flags())
	_ = runCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(runCmd)
}
