package contrib

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// CSV column headers of the spreadsheet export.
const (
	columnWho      = "qui"
	columnCategory = "quoi"
	columnTopic    = "topic"
)

// ReadCSV imports the spreadsheet export. The first line is a banner and is
// skipped; the next line is the header. Only the Qui, Quoi and Topic columns
// are used. Rows without a name are skipped and reported.
func ReadCSV(r io.Reader, source string) (*Dataset, error) {
	src, err := NormalizeSource(source)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode CSV")
	}
	if len(rows) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "CSV needs a banner line and a header row")
	}

	cols := map[string]int{}
	for i, h := range rows[1] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := cols[key]; !seen && key != "" {
			cols[key] = i
		}
	}
	whoCol, ok := cols[columnWho]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "CSV header has no %q column", "Qui")
	}

	ds := &Dataset{}
	for i, row := range rows[2:] {
		ds.Report.Total++
		name := cell(row, whoCol)
		if name == "" {
			ds.Report.Skipped = append(ds.Report.Skipped, Skip{Index: i, Reason: "missing who"})
			continue
		}
		rec := NewRecord([]Person{{Name: name}}, Format{}, nil)
		rec.Source = src
		if c, ok := cols[columnCategory]; ok {
			rec.Category = cell(row, c)
		}
		if c, ok := cols[columnTopic]; ok {
			rec.Topics = SplitList(cell(row, c))
		}
		if err := rec.Validate(); err != nil {
			ds.Report.Skipped = append(ds.Report.Skipped, Skip{Index: i, Reason: errors.UserMessage(err)})
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	ds.Report.Accepted = len(ds.Records)
	return ds, nil
}

// cell returns the trimmed value at index i, treating pandas' "nan" as empty.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// SourceFromFilename infers the contributor source from names such as
// contributeurices_int.csv or people-external.csv. Unknown names are internal.
func SourceFromFilename(path string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	for _, suffix := range []string{"_ext", "-ext", "_external", "-external"} {
		if strings.HasSuffix(base, suffix) {
			return SourceExternal
		}
	}
	return SourceInternal
}
