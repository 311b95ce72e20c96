package config

import (
	"context"

	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/rule"
)

// Convert turns descriptors into normalized rules. Descriptors that do not
// name both an interface and an injection class are dropped silently, apart
// from a debug log line.
func Convert(ctx context.Context, m *Model) []rule.Rule {
	logger := ctxlog.FromContext(ctx)
	if m == nil {
		return nil
	}

	rules := make([]rule.Rule, 0, len(m.Descriptors))
	for i, d := range m.Descriptors {
		r := d.Rule().Normalize()
		if !r.Validate() {
			logger.Debug("Dropping invalid registration descriptor.", "index", i, "interface", r.InterfaceName, "init_class", r.InitClassName)
			continue
		}
		logger.Debug("Rule configured.", "rule", r.ID, "interface", r.InterfaceName, "target", r.InitClassName+"."+r.InitMethodName)
		rules = append(rules, r)
	}
	return rules
}

// Rule maps the descriptor onto an unnormalized rule. Values of the wrong
// type are ignored, except that a single string is accepted wherever a list
// is expected.
func (d Descriptor) Rule() rule.Rule {
	return rule.Rule{
		InterfaceName:      d.str(KeyScanInterface),
		SuperClassNames:    d.list(KeyScanSuperClasses),
		InitClassName:      d.str(KeyCodeInsertToClassName),
		InitMethodName:     d.str(KeyCodeInsertToMethodName),
		RegisterClassName:  d.str(KeyRegisterClassName),
		RegisterMethodName: d.str(KeyRegisterMethodName),
		Include:            d.list(KeyInclude),
		Exclude:            d.list(KeyExclude),
	}
}

func (d Descriptor) str(key string) string {
	s, _ := d[key].(string)
	return s
}

func (d Descriptor) list(key string) []string {
	switch v := d[key].(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
