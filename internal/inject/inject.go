// Package inject implements the mutation half of registration: it rewrites a
// rule's target method so that, right before each of its return points, it
// instantiates every class recorded for the rule and passes the instance to
// the rule's register method.
package inject

import (
	"context"
	"fmt"

	"github.com/vk/autoregister/internal/classfile"
	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/pipeline"
	"github.com/vk/autoregister/internal/registry"
	"github.com/vk/autoregister/internal/rule"
)

// Operand stack needed by one registration: the new instance twice (new,
// dup), plus the receiver for instance targets.
const (
	staticStackGrowth   = 2
	instanceStackGrowth = 3
)

// Pass rewrites target methods from registry snapshots.
type Pass struct {
	rules    []rule.Rule
	registry *registry.Registry
}

// New creates an injection pass over the given rules.
func New(rules []rule.Rule, reg *registry.Registry) *Pass {
	return &Pass{rules: rules, registry: reg}
}

// IsTarget reports whether className is some rule's injection class.
func (p *Pass) IsTarget(className string) bool {
	for _, r := range p.rules {
		if r.InitClassName == className {
			return true
		}
	}
	return false
}

// WantsClass implements pipeline.MethodStage.
func (p *Pass) WantsClass(className string) bool {
	return p.IsTarget(className)
}

// Wants implements pipeline.MethodStage.
func (p *Pass) Wants(className, methodName string) bool {
	for _, r := range p.rules {
		if r.Targets(className, methodName) {
			return true
		}
	}
	return false
}

// Result describes the injection of one rule into one method.
type Result struct {
	RuleID       string
	Classes      []string
	ReturnPoints int
}

// Rewrite implements pipeline.MethodStage.
func (p *Pass) Rewrite(ctx context.Context, edit pipeline.MethodEdit) (bool, error) {
	results, err := p.Apply(ctx, edit)
	if err != nil {
		return false, err
	}
	for _, res := range results {
		if res.ReturnPoints > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Apply injects, for every rule targeting the edited method and in rule
// order, one registration per recorded class before every return point.
func (p *Pass) Apply(ctx context.Context, edit pipeline.MethodEdit) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)

	var results []Result
	for _, r := range p.rules {
		if !r.Targets(edit.ClassName, edit.Name) {
			continue
		}
		classes := p.registry.Snapshot(r.ID)
		res := Result{RuleID: r.ID, Classes: classes}
		if len(classes) == 0 {
			logger.Debug("No classes recorded for rule, target left as is.", "rule", r.ID, "target", edit.ClassName+"."+edit.Name)
			results = append(results, res)
			continue
		}

		seq, err := Sequence(edit.Pool, r, classes, edit.Static)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		growth := instanceStackGrowth
		if edit.Static {
			growth = staticStackGrowth
		}
		if res.ReturnPoints, err = edit.Code.InsertBeforeReturns(seq, growth); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}

		logger.Debug("Registration calls injected.",
			"rule", r.ID,
			"target", edit.ClassName+"."+edit.Name+edit.Descriptor,
			"classes", len(classes),
			"return_points", res.ReturnPoints,
		)
		results = append(results, res)
	}
	return results, nil
}

// Sequence builds the registration bytecode for classes, in order:
//
//	[aload_0]                      instance targets only
//	new C; dup; invokespecial C.<init>()V
//	invokestatic|invokevirtual R.register(L<interface>;)V
func Sequence(pool pipeline.ConstantAdder, r rule.Rule, classes []string, static bool) ([]byte, error) {
	invoke := byte(classfile.OpInvokevirtual)
	if static {
		invoke = classfile.OpInvokestatic
	}
	register, err := pool.AddMethodref(r.RegisterClassName, r.RegisterMethodName, r.RegisterDescriptor())
	if err != nil {
		return nil, err
	}

	var seq []byte
	for _, name := range classes {
		cls, err := pool.AddClass(name)
		if err != nil {
			return nil, err
		}
		ctor, err := pool.AddMethodref(name, "<init>", "()V")
		if err != nil {
			return nil, err
		}
		if !static {
			seq = append(seq, classfile.OpAload0)
		}
		seq = append(seq, classfile.OpNew, byte(cls>>8), byte(cls))
		seq = append(seq, classfile.OpDup)
		seq = append(seq, classfile.OpInvokespecial, byte(ctor>>8), byte(ctor))
		seq = append(seq, invoke, byte(register>>8), byte(register))
	}
	return seq, nil
}
