package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/httputil"
	"github.com/matzehuels/contribnet/pkg/observability"
)

// =============================================================================
// Load Stage
// =============================================================================

// Loaded is the outcome of the load stage.
type Loaded struct {
	Graph  *graph.Graph
	Report contrib.Report
	// Hash is the content hash of the inputs, as returned by [DatasetHash].
	Hash string
}

// loadEntry is the cached form of a load.
type loadEntry struct {
	Graph  json.RawMessage `json:"graph"`
	Report contrib.Report  `json:"report"`
}

// datasetInput is the raw content of one dataset file or URL.
type datasetInput struct {
	name string
	data []byte
}

// readInputs reads every dataset path. http(s) URLs are downloaded with f.
func readInputs(ctx context.Context, paths []string, f *httputil.Fetcher) ([]datasetInput, error) {
	inputs := make([]datasetInput, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if httputil.IsURL(p) {
			if f == nil {
				f = httputil.NewFetcher(nil)
			}
			data, err := f.Fetch(ctx, p)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, datasetInput{name: httputil.Base(p), data: data})
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", p)
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", p)
		}
		inputs = append(inputs, datasetInput{name: filepath.Base(p), data: data})
	}
	return inputs, nil
}

// hashInputs hashes names and contents. Names are part of the hash because
// CSV sources are inferred from them.
func hashInputs(inputs []datasetInput) string {
	var buf bytes.Buffer
	for _, in := range inputs {
		buf.WriteString(in.name)
		buf.WriteByte(0)
		buf.Write(in.data)
		buf.WriteByte(0)
	}
	return cache.Hash(buf.Bytes())
}

func buildLoaded(inputs []datasetInput, opts Options) (*Loaded, error) {
	sets := make([]*contrib.Dataset, 0, len(inputs))
	for _, in := range inputs {
		ds, err := contrib.DecodeNamed(in.name, bytes.NewReader(in.data))
		if err != nil {
			return nil, err
		}
		sets = append(sets, ds)
	}
	ds := contrib.Merge(sets...)
	g, err := graph.Build(ds.Records, graph.BuildOptions{DefaultSource: opts.DefaultSource})
	if err != nil {
		return nil, err
	}
	return &Loaded{Graph: g, Report: ds.Report, Hash: hashInputs(inputs)}, nil
}

// Load reads the dataset files or URLs and builds the contributor graph
// without caching.
func Load(ctx context.Context, opts Options) (*Loaded, error) {
	inputs, err := readInputs(ctx, opts.Dataset, nil)
	if err != nil {
		return nil, err
	}
	return buildLoaded(inputs, opts)
}

// DatasetHash returns a content hash over the dataset files or URLs.
func DatasetHash(ctx context.Context, paths []string) (string, error) {
	inputs, err := readInputs(ctx, paths, nil)
	if err != nil {
		return "", err
	}
	return hashInputs(inputs), nil
}

// LoadWithCacheInfo loads the dataset with caching and returns cache hit info.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*Loaded, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}

	label := datasetLabel(opts.Dataset)
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, label)
	start := time.Now()

	loaded, hit, err := r.load(ctx, opts)
	if err != nil {
		hooks.OnLoadComplete(ctx, label, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnLoadComplete(ctx, label, loaded.Graph.NodeCount(), len(loaded.Report.Skipped), time.Since(start), nil)
	return loaded, hit, nil
}

// Load loads the dataset with caching.
func (r *Runner) Load(ctx context.Context, opts Options) (*Loaded, error) {
	loaded, _, err := r.LoadWithCacheInfo(ctx, opts)
	return loaded, err
}

func (r *Runner) load(ctx context.Context, opts Options) (*Loaded, bool, error) {
	inputs, err := readInputs(ctx, opts.Dataset, r.Fetcher)
	if err != nil {
		return nil, false, err
	}
	hash := hashInputs(inputs)
	cacheKey := r.Keyer.GraphKey(hash, opts.GraphKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if loaded, err := decodeLoadEntry(data); err == nil {
				loaded.Hash = hash
				opts.Logger.Debug("graph cache hit", "key", cacheKey)
				return loaded, true, nil
			}
			opts.Logger.Warn("discarding unreadable cache entry", "key", cacheKey)
		}
	}

	loaded, err := buildLoaded(inputs, opts)
	if err != nil {
		return nil, false, err
	}
	for _, s := range loaded.Report.Skipped {
		opts.Logger.Warn("skipped dataset element", "index", s.Index, "reason", s.Reason)
	}

	if data, err := encodeLoadEntry(loaded); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph); err != nil {
			opts.Logger.Warn("failed to cache graph", "error", err)
		}
	}
	return loaded, false, nil
}

func encodeLoadEntry(l *Loaded) ([]byte, error) {
	g, err := graph.MarshalGraph(l.Graph)
	if err != nil {
		return nil, err
	}
	return json.Marshal(loadEntry{Graph: g, Report: l.Report})
}

func decodeLoadEntry(data []byte) (*Loaded, error) {
	var e loadEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	g, err := graph.ReadGraph(bytes.NewReader(e.Graph))
	if err != nil {
		return nil, err
	}
	return &Loaded{Graph: g, Report: e.Report}, nil
}

func datasetLabel(paths []string) string {
	if len(paths) == 1 {
		return paths[0]
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	b, _ := json.Marshal(names)
	return string(b)
}
