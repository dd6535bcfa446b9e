package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

// Row is one labelled job posting.
type Row struct {
	Document textnorm.Document
	Label    int
}

// Labels returns the label column of rows.
func Labels(rows []Row) []int {
	y := make([]int, len(rows))
	for i, r := range rows {
		y[i] = r.Label
	}
	return y
}

var textColumns = []string{"title", "company_profile", "description", "requirements", "benefits"}

const labelColumn = "fraudulent"

// ReadCSV parses a headed CSV corpus. Columns are located by header name, so
// extra columns are ignored and missing text columns read as blank. The
// fraudulent column is required and must hold 0 or 1.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrInvalidCorpus, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	labelIdx, ok := cols[labelColumn]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrInvalidCorpus, labelColumn)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCorpus, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		if labelIdx >= len(rec) {
			return nil, fmt.Errorf("%w: line %d: missing label", ErrInvalidCorpus, line)
		}
		label, err := parseLabel(rec[labelIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidCorpus, line, err)
		}

		rows = append(rows, Row{
			Document: textnorm.Document{
				Title:          field(textColumns[0]),
				CompanyProfile: field(textColumns[1]),
				Description:    field(textColumns[2]),
				Requirements:   field(textColumns[3]),
				Benefits:       field(textColumns[4]),
			},
			Label: label,
		})
	}

	return rows, nil
}

// WriteCSV writes rows with the column layout ReadCSV expects.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, textColumns...), labelColumn)); err != nil {
		return err
	}
	for _, r := range rows {
		d := r.Document
		rec := []string{d.Title, d.CompanyProfile, d.Description, d.Requirements, d.Benefits, strconv.Itoa(r.Label)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil && (v == 0 || v == 1) {
		return v, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && (f == 0 || f == 1) {
		return int(f), nil
	}
	return 0, fmt.Errorf("label %q is not 0 or 1", s)
}

// LoadDataset reads the CSV corpus at path. A missing file is not an error:
// the deterministic synthetic corpus is returned instead.
func LoadDataset(path string, synthetic SyntheticOptions, logger *slog.Logger) ([]Row, error) {
	if path == "" {
		logger.Info("no dataset configured, generating synthetic corpus", "size", synthetic.Size)
		return Synthetic(synthetic), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("dataset not found, generating synthetic corpus", "path", path, "size", synthetic.Size)
		return Synthetic(synthetic), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}

	logger.Info("dataset loaded", "path", path, "rows", len(rows))
	return rows, nil
}
