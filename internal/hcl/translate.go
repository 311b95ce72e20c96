package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// translateRegisterInfo converts a decoded registerInfo block into the
// format-agnostic descriptor. Empty string attributes are left out.
func translateRegisterInfo(ctx context.Context, ri *registerInfo) (config.Descriptor, error) {
	d := config.Descriptor{}
	setString := func(key, v string) {
		if v != "" {
			d[key] = v
		}
	}
	setString(config.KeyScanInterface, ri.ScanInterface)
	setString(config.KeyCodeInsertToClassName, ri.CodeInsertToClassName)
	setString(config.KeyCodeInsertToMethodName, ri.CodeInsertToMethodName)
	setString(config.KeyRegisterClassName, ri.RegisterClassName)
	setString(config.KeyRegisterMethodName, ri.RegisterMethodName)

	lists := []struct {
		key  string
		expr hcl.Expression
	}{
		{config.KeyScanSuperClasses, ri.ScanSuperClasses},
		{config.KeyInclude, ri.Include},
		{config.KeyExclude, ri.Exclude},
	}
	for _, l := range lists {
		if !isExprDefined(ctx, l.expr, l.key) {
			continue
		}
		v, err := stringOrList(l.expr)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", l.key, err)
		}
		d[l.key] = v
	}
	return d, nil
}

// stringOrList evaluates expr to either a string or a list of strings.
func stringOrList(expr hcl.Expression) (any, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, fmt.Errorf("value must not be null")
	}
	if val.Type() == cty.String {
		return val.AsString(), nil
	}

	list, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("want a string or a list of strings: %w", err)
	}
	var out []string
	if err := gocty.FromCtyValue(list, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// isExprDefined checks if an HCL expression was actually present in the
// source. Optional expression fields are populated with zero-width
// placeholder expressions when the attribute is omitted.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}
