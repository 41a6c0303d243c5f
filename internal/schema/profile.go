package schema

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contacts-cli/internal/model"
)

// LoadProfile reads CRM column overrides from a YAML file with the keys
// name, phone, ddi, tags, created, notes and labels. Unknown keys are rejected.
func LoadProfile(path string) (model.ColumnOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ColumnOverrides{}, eris.Wrapf(err, "schema: read profile %s", path)
	}

	var overrides model.ColumnOverrides
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
		return model.ColumnOverrides{}, eris.Wrapf(err, "schema: parse profile %s", path)
	}
	return overrides, nil
}
