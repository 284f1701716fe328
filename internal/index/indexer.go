package index

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"rustex/internal/crawler"
	"rustex/internal/extractor"
	"rustex/internal/graph"
	"rustex/internal/model"
	"rustex/internal/parser"
	"rustex/internal/resolver"
)

// Config tunes one analysis run.
type Config struct {
	// Workers caps parallel file pipelines; 0 means NumCPU.
	Workers int
	// FailureRateThreshold fails the whole run once failed/total exceeds
	// it; 0 means the 0.5 default.
	FailureRateThreshold float64
	Extract              extractor.Options
}

// FileError records one file the run could not analyze.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report summarizes an analysis run for the CLI and the pipeline report.
type Report struct {
	TotalFiles int           `json:"total_files"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Errors     []FileError   `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// Indexer runs the per-file pipeline (read, parse, visit, resolve) over a
// project and aggregates the results. Each file gets its own visitor and
// resolver instance so pipelines share no mutable state; ids are made
// project-unique afterwards by a deterministic renumbering pass.
type Indexer struct {
	crawler *crawler.Crawler
	cfg     Config
}

func NewIndexer(c *crawler.Crawler, cfg Config) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.FailureRateThreshold <= 0 {
		cfg.FailureRateThreshold = 0.5
	}
	return &Indexer{crawler: c, cfg: cfg}
}

type fileResult struct {
	rec      graph.FileRecord
	elements []*model.CodeElement
	refs     []model.CrossReference
	err      error
}

// Run discovers and analyzes every source file under root.
//
// Files fail individually (unreadable, syntax errors) without stopping
// the run; the run as a whole errors only when the failure rate passes
// the configured threshold.
func (ix *Indexer) Run(ctx context.Context, root string) (*graph.Project, *Report, error) {
	started := time.Now()

	files, err := ix.crawler.Discover(root)
	if err != nil {
		return nil, nil, err
	}

	manifest := crawler.ReadManifest(root)
	project := graph.NewProject(manifest.Name, root)
	project.Edition = manifest.Edition

	results := make([]fileResult, len(files))
	workers := ix.cfg.Workers
	if workers > len(files) {
		workers = len(files)
	}

	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))
	for i, rel := range files {
		g.Go(func() error {
			results[i] = ix.analyzeFile(ctx, root, rel)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{TotalFiles: len(files)}
	var succeeded []*fileResult
	for i := range results {
		r := &results[i]
		if r.err != nil {
			report.Failed++
			report.Errors = append(report.Errors, FileError{Path: r.rec.Path, Message: r.err.Error()})
			continue
		}
		report.Succeeded++
		succeeded = append(succeeded, r)
	}

	if report.TotalFiles > 0 {
		rate := float64(report.Failed) / float64(report.TotalFiles)
		if rate > ix.cfg.FailureRateThreshold {
			return nil, report, fmt.Errorf("analysis failed for %d of %d files", report.Failed, report.TotalFiles)
		}
	}

	// files arrive path-sorted from the crawler, so renumbering is
	// deterministic for identical inputs
	renumberIDs(succeeded)
	for _, r := range succeeded {
		project.AddFileResult(r.rec, r.elements, r.refs)
	}

	report.Duration = time.Since(started)
	return project, report, nil
}

func (ix *Indexer) analyzeFile(ctx context.Context, root, rel string) fileResult {
	result := fileResult{rec: graph.FileRecord{Path: rel}}

	source, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		result.err = fmt.Errorf("failed to read file: %w", err)
		return result
	}
	result.rec.Hash = fmt.Sprintf("%016x", xxhash.Sum64(source))
	result.rec.Lines = bytes.Count(source, []byte("\n")) + 1

	tree, err := parser.New().Parse(ctx, source)
	if err != nil {
		result.err = err
		return result
	}

	v := extractor.NewVisitor(rel, source, ix.cfg.Extract)
	v.Walk(tree.RootNode())
	elements, usages := v.ElementsAndUsages()

	refs, _ := resolver.New().Resolve(elements, usages)
	result.elements = elements
	result.refs = refs
	return result
}

// renumberIDs rewrites "{type}_{name}_{n}" sequence numbers so ids are
// unique across the whole project, patching parent, children and
// reference ids along the way. Per-file resolution means references never
// cross file boundaries, so each file's mapping is self-contained.
func renumberIDs(results []*fileResult) {
	counters := make(map[string]int)
	for _, fr := range results {
		mapping := make(map[string]string)
		for _, e := range fr.elements {
			key := string(e.ElementType) + "\x00" + e.Name
			counters[key]++
			newID := fmt.Sprintf("%s_%s_%d", e.ElementType, e.Name, counters[key])
			if newID != e.ID {
				mapping[e.ID] = newID
			}
		}
		if len(mapping) == 0 {
			continue
		}
		for _, e := range fr.elements {
			if id, ok := mapping[e.ID]; ok {
				e.ID = id
			}
			if e.Hierarchy.ParentID != nil {
				if id, ok := mapping[*e.Hierarchy.ParentID]; ok {
					e.Hierarchy.ParentID = &id
				}
			}
			for i, child := range e.Hierarchy.ChildrenIDs {
				if id, ok := mapping[child]; ok {
					e.Hierarchy.ChildrenIDs[i] = id
				}
			}
		}
		for i := range fr.refs {
			ref := &fr.refs[i]
			if id, ok := mapping[ref.FromElementID]; ok {
				ref.FromElementID = id
			}
			if ref.ToElementID != nil {
				if id, ok := mapping[*ref.ToElementID]; ok {
					ref.ToElementID = &id
				}
			}
		}
	}
}
