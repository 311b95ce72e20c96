package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL rule file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top level of a rule file. Unknown blocks are left in
// Remain so rule files can live next to other HCL configuration.
type fileRoot struct {
	Blocks []*autoregisterBlock `hcl:"autoregister,block"`
	Remain hcl.Body             `hcl:",remain"`
}

type autoregisterBlock struct {
	RegisterInfo []*registerInfo `hcl:"registerInfo,block"`
}

// registerInfo mirrors config.Descriptor. List-valued attributes are kept as
// expressions because a single string is accepted in their place.
type registerInfo struct {
	ScanInterface          string         `hcl:"scanInterface,optional"`
	ScanSuperClasses       hcl.Expression `hcl:"scanSuperClasses,optional"`
	CodeInsertToClassName  string         `hcl:"codeInsertToClassName,optional"`
	CodeInsertToMethodName string         `hcl:"codeInsertToMethodName,optional"`
	RegisterClassName      string         `hcl:"registerClassName,optional"`
	RegisterMethodName     string         `hcl:"registerMethodName,optional"`
	Include                hcl.Expression `hcl:"include,optional"`
	Exclude                hcl.Expression `hcl:"exclude,optional"`
}

// Load parses every given file and returns their descriptors in file and
// block order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range paths {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		part, err := l.decode(ctx, hclFile.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		model.Merge(part)
	}

	logger.Debug("HCL loader finished.", "descriptors", len(model.Descriptors))
	return model, nil
}

// LoadBytes decodes rule definitions held in memory. filename is used in
// diagnostics only.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return l.decode(ctx, hclFile.Body)
}

func (l *Loader) decode(ctx context.Context, body hcl.Body) (*config.Model, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	model := &config.Model{}
	for _, block := range root.Blocks {
		for _, ri := range block.RegisterInfo {
			d, err := translateRegisterInfo(ctx, ri)
			if err != nil {
				return nil, err
			}
			model.Descriptors = append(model.Descriptors, d)
		}
	}
	return model, nil
}
