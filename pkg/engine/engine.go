// Package engine orchestrates a scan run: file discovery, the
// two-pass registry/scanner sweep over a worker pool, the edge
// inference barrier, story synthesis, and the render decision.
package engine

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"flowsight/internal/config"
	"flowsight/internal/locator"
	"flowsight/internal/log"
	"flowsight/pkg/graph"
	"flowsight/pkg/infer"
	"flowsight/pkg/render"
	"flowsight/pkg/scan"
	"flowsight/pkg/schema"
	"flowsight/pkg/story"
)

// Engine runs scans. It holds no per-scan state: every Scan call owns
// its own registry and graph end to end.
type Engine struct {
	cfg      *config.Config
	logger   log.Logger
	progress ProgressFunc
}

// New creates an engine for the given configuration.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg, logger: log.Default()}
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(l log.Logger) {
	e.logger = l
}

// OnProgress registers the progress callback.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.progress = fn
}

// Scan analyzes the tree at root and returns the workflow graph.
// Only a configuration error returns a non-nil error; every other
// condition degrades and is aggregated into the result.
func (e *Engine) Scan(ctx context.Context, root string) (*ScanResult, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &ScanResult{Graph: graph.New()}

	loc := locator.New(locator.Options{
		IncludeExtensions: e.cfg.IncludeExtensions,
		ExcludeDirs:       e.cfg.ExcludeDirs,
		ExcludePatterns:   e.cfg.ExcludePatterns,
		MaxFileSize:       e.cfg.MaxFileSize,
	})
	files, warnings, err := loc.Locate(root)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		result.Errors = append(result.Errors, ScanError{Kind: FileAccess, Path: w.Path, Message: w.Reason})
	}
	e.report(0, len(files), 0, "discovered files")

	// First pass: build the schema registry, then freeze it before any
	// node extraction begins.
	registry, cancelled := e.buildRegistry(ctx, files, result)
	result.Registry = registry

	var scannedFiles int
	if !cancelled {
		scannedFiles, cancelled = e.scanFiles(ctx, root, files, registry, result)
	}

	if cancelled {
		result.Cancelled = true
		result.Errors = append(result.Errors, ScanError{Kind: Cancellation, Message: "scan cancelled; partial graph returned"})
	} else {
		// Barrier: inference only runs over a completely scanned tree.
		eng := infer.New(infer.Options{
			Enabled:         e.cfg.EdgeInference.Enabled,
			ProximityEdges:  e.cfg.EdgeInference.ProximityEdges,
			DataFlowEdges:   e.cfg.EdgeInference.DataFlowEdges,
			MaxLineDistance: e.cfg.EdgeInference.MaxLineDistance,
			DataFlowWindow:  e.cfg.EdgeInference.DataFlowWindow,
		})
		eng.Run(result.Graph)

		result.Workflows = story.New(0).Synthesize(result.Graph)
	}

	result.Render = render.Decide(result.Graph.NodeCount(), e.cfg.RenderNodeCeiling)
	if result.Render.Notice != "" {
		e.logger.Info("render gate", "notice", result.Render.Notice)
	}

	result.Elapsed = time.Since(start)
	result.Graph.Metadata = graph.Meta{
		FilesScanned: scannedFiles,
		ScanTime:     result.Elapsed,
		Errors:       errorStrings(result.Errors),
		Cancelled:    result.Cancelled,
	}

	e.report(scannedFiles, len(files), result.Graph.NodeCount(), "scan complete")
	return result, nil
}

// buildRegistry is the first pass. Files are read in parallel; the
// likely-declaring contents are folded into the builder sequentially
// in discovery order, so registry collisions resolve deterministically.
func (e *Engine) buildRegistry(ctx context.Context, files []locator.File, result *ScanResult) (*schema.Registry, bool) {
	contents := make([]string, len(files))
	cancelled := e.forEachFile(ctx, files, func(i int, f locator.File) {
		content, serr := readSource(f.FullPath)
		if serr != nil {
			// Recorded during the second pass, which re-reads.
			return
		}
		if schema.LikelyDeclares(content) {
			contents[i] = content
		}
	}, nil)

	builder := schema.NewBuilder()
	for i, f := range files {
		if contents[i] != "" {
			builder.AddFile(f.Path, contents[i])
		}
	}
	for _, w := range builder.Warnings() {
		result.Errors = append(result.Errors, ScanError{Kind: RegistryCollision, Message: w})
		e.logger.Warn("registry collision", "detail", w)
	}
	return builder.Freeze(), cancelled
}

// scanFiles is the second pass. Workers scan independent files; node
// slices are merged back in original file order, not completion order,
// so output is reproducible for an unchanged tree.
func (e *Engine) scanFiles(ctx context.Context, root string, files []locator.File, registry *schema.Registry, result *ScanResult) (int, bool) {
	scanners := scan.Scanners(scan.Options{
		Categories: e.categories(),
		Companions: scan.NewCompanionLoader(root),
	})

	type fileResult struct {
		nodes []*graph.WorkflowNode
		err   *ScanError
		done  bool
	}
	results := make([]fileResult, len(files))

	var mu sync.Mutex
	done, found := 0, 0

	cancelled := e.forEachFile(ctx, files, func(i int, f locator.File) {
		content, serr := readSource(f.FullPath)
		if serr != nil {
			results[i] = fileResult{err: &ScanError{Kind: FileAccess, Path: f.Path, Message: serr.Error()}, done: true}
			return
		}
		var nodes []*graph.WorkflowNode
		for _, s := range scanners {
			if s.AppliesTo(f.Path) {
				nodes = append(nodes, s.Scan(f.Path, content, registry)...)
			}
		}
		results[i] = fileResult{nodes: nodes, done: true}
	}, func(i int) {
		// The lock also serializes progress callbacks.
		mu.Lock()
		done++
		found += len(results[i].nodes)
		e.report(done, len(files), found, files[i].Path)
		mu.Unlock()
	})

	// Merge in original file order. Slots left empty by a cancelled run
	// are skipped, not counted.
	scanned := 0
	for _, r := range results {
		if !r.done {
			continue
		}
		if r.err != nil {
			result.Errors = append(result.Errors, *r.err)
			e.logger.Warn("file skipped", "path", r.err.Path, "reason", r.err.Message)
			continue
		}
		scanned++
		for _, n := range r.nodes {
			result.Graph.AddNode(n)
		}
	}
	return scanned, cancelled
}

// forEachFile dispatches fn over a bounded worker pool with a
// cooperative cancellation check between files. It reports whether the
// run was cancelled.
func (e *Engine) forEachFile(ctx context.Context, files []locator.File, fn func(i int, f locator.File), after func(i int)) bool {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)

	cancelled := false
	for i, f := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		i, f := i, f
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(i, f)
			if after != nil {
				after(i)
			}
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		cancelled = true
	}
	return cancelled
}

func (e *Engine) categories() scan.Categories {
	d := e.cfg.Detect
	return scan.Categories{
		Database:   d.Database,
		API:        d.API,
		FileIO:     d.FileIO,
		Messages:   d.Messages,
		Transforms: d.Transforms,
		Cache:      d.Cache,
		UITriggers: d.UITriggers,
	}
}

func (e *Engine) report(done, total, nodes int, msg string) {
	if e.progress == nil {
		return
	}
	e.progress(Progress{FilesScanned: done, TotalFiles: total, NodesFound: nodes, Message: msg})
}

// readSource reads a file and rejects non-UTF8/binary content. The
// locator already enforced the size ceiling.
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", errBinary
	}
	return string(data), nil
}

var errBinary = &binaryFileError{}

type binaryFileError struct{}

func (*binaryFileError) Error() string { return "binary or non-UTF8 content" }

func errorStrings(errs []ScanError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
