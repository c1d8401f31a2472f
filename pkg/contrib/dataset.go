package contrib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// Skip records why a dataset element was left out.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarizes a load.
type Report struct {
	Total    int    `json:"total"`
	Accepted int    `json:"accepted"`
	Skipped  []Skip `json:"skipped,omitempty"`
}

// Dataset is the decoded, validated content of a dataset file.
type Dataset struct {
	Records []Record
	Report  Report
}

// Decode reads a JSON array of records. Malformed elements are skipped and
// reported; a top-level value that is not an array fails the load.
func Decode(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "read dataset")
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (*Dataset, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "expected a JSON array of contributions")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	return collect(elems), nil
}

func collect(elems []json.RawMessage) *Dataset {
	ds := &Dataset{Records: make([]Record, 0, len(elems))}
	ds.Report.Total = len(elems)

	for i, raw := range elems {
		rec, err := decodeElement(raw)
		if err != nil {
			ds.Report.Skipped = append(ds.Report.Skipped, Skip{Index: i, Reason: errors.UserMessage(err)})
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	ds.Report.Accepted = len(ds.Records)
	return ds
}

func decodeElement(raw json.RawMessage) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, errors.New(errors.ErrCodeInvalidRecord, "not an object")
	}
	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInvalidRecord, err, "malformed record")
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// DecodeYAML reads a YAML sequence of records with the same contract as Decode.
func DecodeYAML(r io.Reader) (*Dataset, error) {
	var top any
	if err := yaml.NewDecoder(r).Decode(&top); err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.ErrCodeInvalidDataset, "empty YAML document")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	seq, ok := top.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "expected a YAML sequence of contributions")
	}

	elems := make([]json.RawMessage, len(seq))
	for i, item := range seq {
		data, err := json.Marshal(item)
		if err != nil {
			// Leave the slot empty so collect reports it as "not an object".
			continue
		}
		elems[i] = data
	}
	return collect(elems), nil
}

// ReadFile loads a dataset, choosing the decoder from the file extension.
// CSV files are read with the source inferred from the file name
// (see SourceFromFilename).
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeNamed(path, f)
}

// DecodeNamed decodes r with the decoder matching the extension of name.
// name may be a bare file name, as for datasets fetched over HTTP.
func DecodeNamed(name string, r io.Reader) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		return Decode(r)
	case ".yaml", ".yml":
		return DecodeYAML(r)
	case ".csv":
		return ReadCSV(r, SourceFromFilename(name))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset extension %q", ext)
	}
}

// ReadFiles loads several datasets and merges them in order.
func ReadFiles(paths ...string) (*Dataset, error) {
	sets := make([]*Dataset, 0, len(paths))
	for _, p := range paths {
		ds, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ds)
	}
	return Merge(sets...), nil
}

// Merge concatenates datasets. Skip indexes are offset so that they stay
// unique across the merged elements.
func Merge(sets ...*Dataset) *Dataset {
	out := &Dataset{}
	for _, ds := range sets {
		offset := out.Report.Total
		for _, s := range ds.Report.Skipped {
			s.Index += offset
			out.Report.Skipped = append(out.Report.Skipped, s)
		}
		out.Records = append(out.Records, ds.Records...)
		out.Report.Total += ds.Report.Total
		out.Report.Accepted += ds.Report.Accepted
	}
	return out
}
