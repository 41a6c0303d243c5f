package model

// ReportSchemaVersion is bumped whenever the report shape changes.
const ReportSchemaVersion = 1

// Suspect reasons.
const (
	ReasonPhoneLength  = "phone_length"
	ReasonNameMojibake = "name_mojibake"
)

// Suspect is a non-fatal data-quality flag recorded for manual review.
type Suspect struct {
	Reason          string   `json:"reason"`
	Source          string   `json:"source"`
	RawPhone        string   `json:"raw_phone"`
	NormalizedPhone string   `json:"normalized_phone"`
	Name            string   `json:"name"`
	Line            int      `json:"line"`
	SuggestedFix    *string  `json:"suggested_fix"`
	Badness         *float64 `json:"badness"`
}

// ReportParams echoes the options a run was executed with.
type ReportParams struct {
	DDIDefault          string `json:"ddi_default"`
	AssumeDDI           bool   `json:"assume_ddi"`
	BatchSize           int    `json:"batch_size"`
	Label               string `json:"label"`
	PhonePrefixPlus     bool   `json:"phone_prefix_plus"`
	MinPhoneLen         int    `json:"min_phone_len"`
	MaxPhoneLen         int    `json:"max_phone_len"`
	DedupeEnabled       bool   `json:"dedupe_enabled"`
	TreatDotAsEmpty     bool   `json:"treat_dot_as_empty"`
	ProtectGoodName     bool   `json:"protect_good_name"`
	RenamePhoneLikeName bool   `json:"rename_phone_like_names"`
	ExplodePhones       bool   `json:"explode_phones"`
	FallbackPrefix      string `json:"fallback_prefix"`
	DryRun              bool   `json:"dry_run"`
}

// InputReport summarizes one source: how it was decoded and which columns were picked.
type InputReport struct {
	Path         string    `json:"path"`
	Format       string    `json:"format"`
	Encoding     string    `json:"encoding"`
	Delimiter    string    `json:"delimiter"`
	UsedFallback bool      `json:"used_fallback"`
	Columns      ColumnMap `json:"columns"`
}

// NewInputReport builds the per-source report section.
func NewInputReport(desc SourceDescriptor, cols ColumnMap) *InputReport {
	return &InputReport{
		Path:         desc.Path,
		Format:       desc.Format,
		Encoding:     desc.Encoding,
		Delimiter:    desc.Delimiter,
		UsedFallback: desc.UsedFallback,
		Columns:      cols,
	}
}

// Inputs groups the per-source sections; a nil entry means the source was not configured.
type Inputs struct {
	CRM    *InputReport `json:"crm"`
	Google *InputReport `json:"google"`
}

// Counts holds the aggregate counters of a run.
type Counts struct {
	CRMRows               int `json:"crm_rows"`
	GoogleRows            int `json:"google_rows"`
	TotalRows             int `json:"total_rows"`
	WithoutPhone          int `json:"without_phone"`
	DuplicatesMerged      int `json:"duplicates_merged"`
	Suspects              int `json:"suspects"`
	NamesRewritten        int `json:"names_rewritten"`
	PhonesFoundTotal      int `json:"phones_found_total"`
	PhonesUniqueTotal     int `json:"phones_unique_total"`
	ContactsExplodedTotal int `json:"contacts_exploded_total"`
	DedupedContacts       int `json:"deduped_contacts"`
	OutputFiles           int `json:"output_files"`
}

// Report is the durable record of a run, persisted as report.json.
type Report struct {
	SchemaVersion int          `json:"schema_version"`
	Params        ReportParams `json:"params"`
	Inputs        Inputs       `json:"inputs"`
	Counts        Counts       `json:"counts"`
	Outputs       []string     `json:"outputs"`
	Warnings      []string     `json:"warnings"`
	Suspects      []Suspect    `json:"suspects"`
}
