// Package scan implements the analysis half of registration: it tests class
// headers against every rule and records the classes that match.
package scan

import (
	"context"

	"github.com/vk/autoregister/internal/classfile"
	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/registry"
	"github.com/vk/autoregister/internal/rule"
)

// Pass records matching classes into a registry.
type Pass struct {
	rules    []rule.Rule
	registry *registry.Registry
}

// New creates a scan pass over the given rules.
func New(rules []rule.Rule, reg *registry.Registry) *Pass {
	return &Pass{rules: rules, registry: reg}
}

// Eligible reports whether a class may be registered at all: only public,
// concrete classes can be instantiated by the injected code.
func Eligible(h classfile.Header) bool {
	return h.IsPublic() && h.IsConcrete()
}

// Matches reports whether the header satisfies r: the name passes the
// filters and the class implements the rule's interface or directly extends
// one of its superclasses.
func Matches(r rule.Rule, h classfile.Header) bool {
	if r.IsExcluded(h.Name) || !r.IsIncluded(h.Name) {
		return false
	}
	if r.InterfaceName != "" && h.Implements(r.InterfaceName) {
		return true
	}
	return h.SuperName != "" && r.HasSuperClass(h.SuperName)
}

// VisitHeader implements pipeline.HeaderStage.
func (p *Pass) VisitHeader(ctx context.Context, h classfile.Header) {
	p.Visit(ctx, h)
}

// Visit records h under every rule it matches and returns those rule IDs.
func (p *Pass) Visit(ctx context.Context, h classfile.Header) []string {
	if !Eligible(h) {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	var matched []string
	for _, r := range p.rules {
		if !Matches(r, h) {
			continue
		}
		matched = append(matched, r.ID)
		if p.registry.RecordMatch(r.ID, h.Name) {
			logger.Debug("Class matched rule.", "unit", h.Name, "rule", r.ID, "interface", r.InterfaceName)
		}
	}
	return matched
}
