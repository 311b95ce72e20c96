// Package yamlconfig provides the YAML implementation of config.Loader.
//
// A rule file holds a registerInfo list, either at the top level or nested
// under an autoregister key, mirroring the HCL layout:
//
//	autoregister:
//	  registerInfo:
//	    - scanInterface: com.app.Plugin
//	      codeInsertToClassName: com.app.Registry
//	      registerMethodName: add
//
// A file may contain several YAML documents; their lists are concatenated.
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// document is the root structure of one YAML document.
type document struct {
	Autoregister *section `yaml:"autoregister"`
	section      `yaml:",inline"`
}

type section struct {
	RegisterInfo []map[string]any `yaml:"registerInfo"`
}

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML rule file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{}
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		part, err := l.LoadBytes(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		logger.Debug("Decoded YAML rule file.", "path", p, "descriptors", len(part.Descriptors))
		model.Merge(part)
	}
	return model, nil
}

// LoadBytes decodes rule definitions held in memory.
func (l *Loader) LoadBytes(_ context.Context, content []byte) (*config.Model, error) {
	model := &config.Model{}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries := doc.RegisterInfo
		if doc.Autoregister != nil {
			entries = append(entries, doc.Autoregister.RegisterInfo...)
		}
		for _, e := range entries {
			model.Descriptors = append(model.Descriptors, config.Descriptor(e))
		}
	}
	return model, nil
}
