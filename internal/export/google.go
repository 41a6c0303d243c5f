// Package export writes merged contacts as Google Contacts import files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/phone"
)

// GoogleColumns defines the ordered Google Contacts CSV output columns.
var GoogleColumns = []string{
	"First Name",
	"Middle Name",
	"Last Name",
	"Phonetic First Name",
	"Phonetic Middle Name",
	"Phonetic Last Name",
	"Name Prefix",
	"Name Suffix",
	"Nickname",
	"File As",
	"Organization Name",
	"Organization Title",
	"Organization Department",
	"Birthday",
	"Notes",
	"Photo",
	"Labels",
	"Phone 1 - Label",
	"Phone 1 - Value",
}

const (
	colName       = 0
	colNotes      = 14
	colLabels     = 16
	colPhoneLabel = 17
	colPhoneValue = 18

	// PhoneLabel is the label written for every exported phone.
	PhoneLabel = "Mobile"

	// DefaultGroupSeparator joins labels in the Labels column.
	DefaultGroupSeparator = " ::: "

	filePattern = "saida_%03d.csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer splits contacts into fixed-size Google CSV files. Notes are written
// one per line; labels are sorted and joined by GroupSeparator.
type Writer struct {
	BatchSize      int
	PrefixPlus     bool
	GroupSeparator string
}

// FileName returns the name of the n-th (1-based) output file.
func FileName(n int) string {
	return fmt.Sprintf(filePattern, n)
}

// BatchCount returns how many files Write produces for total contacts.
func (w Writer) BatchCount(total int) int {
	if total <= 0 {
		return 0
	}
	size := max(1, w.BatchSize)
	return (total + size - 1) / size
}

// Write creates outDir and writes contacts in order, one file per batch.
// No files are written for an empty slice.
func (w Writer) Write(contacts []*model.Contact, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create output dir %s", outDir)
	}

	size := max(1, w.BatchSize)
	batches := w.BatchCount(len(contacts))
	paths := make([]string, 0, batches)

	for i := range batches {
		start := i * size
		end := min(start+size, len(contacts))
		path := filepath.Join(outDir, FileName(i+1))

		if err := w.writeFile(path, contacts[start:end]); err != nil {
			return paths, err
		}
		zap.L().Debug("export: wrote batch",
			zap.String("path", path),
			zap.Int("contacts", end-start),
		)
		paths = append(paths, path)
	}

	return paths, nil
}

func (w Writer) writeFile(path string, contacts []*model.Contact) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create file %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "export: close file %s", path)
		}
	}()

	if _, err := f.Write(utf8BOM); err != nil {
		return eris.Wrapf(err, "export: write bom %s", path)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(GoogleColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, c := range contacts {
		if err := cw.Write(w.buildRow(c)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}
	return nil
}

// buildRow maps a contact to a Google CSV row.
func (w Writer) buildRow(c *model.Contact) []string {
	row := make([]string, len(GoogleColumns))
	row[colName] = c.Name
	row[colNotes] = strings.Join(c.Notes, "\n")
	if len(c.Labels) > 0 {
		sep := w.GroupSeparator
		if sep == "" {
			sep = DefaultGroupSeparator
		}
		row[colLabels] = strings.Join(c.Labels.Sorted(), sep)
	}
	row[colPhoneLabel] = PhoneLabel
	row[colPhoneValue] = phone.Format(c.Phone, w.PrefixPlus)
	return row
}
