package model

// Source file formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SourceDescriptor describes a detected input file. It is immutable once built.
type SourceDescriptor struct {
	Path         string   `json:"path"`
	Format       string   `json:"format"`
	Encoding     string   `json:"encoding"`
	Delimiter    string   `json:"delimiter"`
	Headers      []string `json:"headers"`
	UsedFallback bool     `json:"used_fallback"`
}

// ColumnMap assigns canonical roles to concrete headers. Absent roles are "".
type ColumnMap struct {
	Name       string   `json:"name" yaml:"name"`
	Phone      string   `json:"phone" yaml:"phone"`
	Phones     []string `json:"phones" yaml:"phones"`
	DDI        string   `json:"ddi" yaml:"ddi"`
	Tags       string   `json:"tags" yaml:"tags"`
	Created    string   `json:"created" yaml:"created"`
	Notes      string   `json:"notes" yaml:"notes"`
	Labels     string   `json:"labels" yaml:"labels"`
	GivenName  string   `json:"given_name" yaml:"given_name"`
	FamilyName string   `json:"family_name" yaml:"family_name"`
}

// ColumnOverrides names explicit CRM headers per role. Empty fields are ignored.
type ColumnOverrides struct {
	Name    string `json:"name,omitempty" yaml:"name" mapstructure:"name"`
	Phone   string `json:"phone,omitempty" yaml:"phone" mapstructure:"phone"`
	DDI     string `json:"ddi,omitempty" yaml:"ddi" mapstructure:"ddi"`
	Tags    string `json:"tags,omitempty" yaml:"tags" mapstructure:"tags"`
	Created string `json:"created,omitempty" yaml:"created" mapstructure:"created"`
	Notes   string `json:"notes,omitempty" yaml:"notes" mapstructure:"notes"`
	Labels  string `json:"labels,omitempty" yaml:"labels" mapstructure:"labels"`
}

// Merge returns o with every empty field filled from fallback.
func (o ColumnOverrides) Merge(fallback ColumnOverrides) ColumnOverrides {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return ColumnOverrides{
		Name:    pick(o.Name, fallback.Name),
		Phone:   pick(o.Phone, fallback.Phone),
		DDI:     pick(o.DDI, fallback.DDI),
		Tags:    pick(o.Tags, fallback.Tags),
		Created: pick(o.Created, fallback.Created),
		Notes:   pick(o.Notes, fallback.Notes),
		Labels:  pick(o.Labels, fallback.Labels),
	}
}
