package schema

import (
	"github.com/sells-group/contacts-cli/internal/model"
)

// CRMCandidates holds the accepted normalized header spellings per CRM role.
var CRMCandidates = struct {
	Name, Phone, DDI, Tags, Created, Notes, Labels []string
}{
	Name:    []string{"nome", "name", "contato", "cliente", "razaosocial", "responsavel", "fullname"},
	Phone:   []string{"telefone", "fone", "celular", "whatsapp", "numero", "numerotelefone", "phone", "mobile"},
	DDI:     []string{"ddi", "ddicode", "countrycode"},
	Tags:    []string{"tags", "tag", "categoria", "segmento", "grupo"},
	Created: []string{"criadoem", "createdat", "datacriacao", "datacadastro"},
	Notes:   []string{"notas", "observacoes", "obs", "notes", "comentarios"},
	Labels:  []string{"labels", "label", "grupo"},
}

// CRM resolves columns of a CRM export, honoring explicit overrides.
type CRM struct {
	Overrides model.ColumnOverrides
}

// NewCRM returns a CRM resolver with the given overrides.
func NewCRM(overrides model.ColumnOverrides) *CRM {
	return &CRM{Overrides: overrides}
}

// Resolve implements Resolver. Every override must match a header; the phone
// role must resolve.
func (r *CRM) Resolve(headers []string) (model.ColumnMap, error) {
	roles := []struct {
		role       string
		override   string
		candidates []string
	}{
		{"name", r.Overrides.Name, CRMCandidates.Name},
		{"phone", r.Overrides.Phone, CRMCandidates.Phone},
		{"ddi", r.Overrides.DDI, CRMCandidates.DDI},
		{"tags", r.Overrides.Tags, CRMCandidates.Tags},
		{"created", r.Overrides.Created, CRMCandidates.Created},
		{"notes", r.Overrides.Notes, CRMCandidates.Notes},
		{"labels", r.Overrides.Labels, CRMCandidates.Labels},
	}

	var cm model.ColumnMap
	targets := []*string{&cm.Name, &cm.Phone, &cm.DDI, &cm.Tags, &cm.Created, &cm.Notes, &cm.Labels}

	// Validate every override before falling back to heuristics.
	resolved := make([]string, len(roles))
	for i, role := range roles {
		h, err := resolveOverride(headers, role.override, role.role)
		if err != nil {
			return model.ColumnMap{}, err
		}
		resolved[i] = h
	}
	for i, role := range roles {
		if resolved[i] == "" {
			resolved[i] = FindColumn(headers, role.candidates)
		}
		*targets[i] = resolved[i]
	}

	if cm.Phone == "" {
		return model.ColumnMap{}, &ConfigError{Role: "phone", Msg: "phone column not found in CRM source; set a phone column override"}
	}
	cm.Phones = []string{cm.Phone}
	return cm, nil
}
