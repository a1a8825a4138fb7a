package graphfile

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/fsutil"
	"github.com/specialistvlad/flowactor/internal/graph"
)

// SupportedFormats is the range of format_version values this loader reads.
const SupportedFormats = ">= 1.0, < 2.0"

// DefaultRoot is the sub-graph executed when no file sets root.
const DefaultRoot = "main"

var supported = mustConstraint(SupportedFormats)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// Source is one file's contents.
type Source struct {
	Filename string
	Src      []byte
}

// Load reads every .hcl file under paths and builds the graph they describe.
func Load(ctx context.Context, paths ...string) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Graph loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	hclFiles := make([]namedFile, 0, len(files))
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, errors.Wrapf(diags, "failed to parse HCL file %s", file)
		}
		hclFiles = append(hclFiles, namedFile{name: file, file: f})
	}
	return decode(ctx, hclFiles)
}

// Parse builds a graph from in-memory sources.
func Parse(ctx context.Context, sources ...Source) (*graph.Graph, error) {
	parser := hclparse.NewParser()
	hclFiles := make([]namedFile, 0, len(sources))
	for _, s := range sources {
		f, diags := parser.ParseHCL(s.Src, s.Filename)
		if diags.HasErrors() {
			return nil, errors.Wrapf(diags, "failed to parse HCL file %s", s.Filename)
		}
		hclFiles = append(hclFiles, namedFile{name: s.Filename, file: f})
	}
	return decode(ctx, hclFiles)
}

type namedFile struct {
	name string
	file *hcl.File
}

func decode(ctx context.Context, files []namedFile) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	t := newTranslator()
	var root, rootFile string

	for _, f := range files {
		var fr fileRoot
		if diags := gohcl.DecodeBody(f.file.Body, nil, &fr); diags.HasErrors() {
			return nil, errors.Wrapf(diags, "failed to decode HCL file %s", f.name)
		}
		if err := checkFormat(fr.FormatVersion); err != nil {
			return nil, errors.Wrapf(err, "file %s", f.name)
		}
		if fr.Root != nil {
			if root != "" {
				return nil, errors.Errorf("root set in both %s and %s", rootFile, f.name)
			}
			root, rootFile = *fr.Root, f.name
		}
		for _, sg := range fr.SubGraphs {
			if err := t.addSubGraph(sg); err != nil {
				return nil, errors.Wrapf(err, "file %s", f.name)
			}
		}
	}

	if root == "" {
		root = DefaultRoot
	}
	g, err := t.build(root)
	if err != nil {
		return nil, errors.Wrap(err, "invalid graph")
	}
	logger.Debug("Graph loaded.", "root", root, "actors", g.Len(), "arrows", len(g.Arrows()), "subgraphs", g.SubGraphs())
	return g, nil
}

func checkFormat(declared *string) error {
	if declared == nil {
		return nil
	}
	v, err := semver.NewVersion(*declared)
	if err != nil {
		return errors.Wrapf(err, "format_version %q", *declared)
	}
	if !supported.Check(v) {
		return errors.Errorf("format_version %s is not supported, want %s", v, SupportedFormats)
	}
	return nil
}
