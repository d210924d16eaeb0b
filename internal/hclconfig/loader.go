// Package hclconfig loads session configuration from HCL files into the
// format-agnostic config.Model.
package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/amnis/internal/config"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Session   *SessionBlock    `hcl:"session,block"`
	Gas       *GasBlock        `hcl:"gas,block"`
	Variables []*VariableBlock `hcl:"variable,block"`
	Fetch     *FetchBlock      `hcl:"fetch,block"`
	SocketIO  *SocketIOBlock   `hcl:"socketio,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// Load parses every .hcl file found under paths, in order, and merges them
// into one model. Later files override scalar settings of earlier ones.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	seenVars := make(map[string]string)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := checkRemain(root.Remain); err != nil {
			return nil, fmt.Errorf("in HCL file %s: %w", file, err)
		}

		part, err := l.translate(ctx, &root)
		if err != nil {
			return nil, fmt.Errorf("in HCL file %s: %w", file, err)
		}
		for _, v := range part.Variables {
			if prev, dup := seenVars[v.Name]; dup {
				return nil, fmt.Errorf("variable %q declared in both %s and %s", v.Name, prev, file)
			}
			seenVars[v.Name] = file
		}
		model.Merge(part)
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "variables", len(model.Variables), "channels", len(model.Session.Channels))
	return model, nil
}

// checkRemain rejects attributes or blocks no field claimed.
func checkRemain(body hcl.Body) error {
	if body == nil {
		return nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("unsupported block: %w", diags)
	}
	for name, attr := range attrs {
		return fmt.Errorf("unsupported top-level attribute %q at %s", name, attr.Range)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	return fsutil.FindFilesByExtension(".hcl", paths...)
}
