package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/autoregister/internal/classfile"
	"github.com/vk/autoregister/internal/ctxlog"
)

// ErrMalformedUnit wraps every failure to decode a unit. The unit is passed
// through unchanged alongside it.
var ErrMalformedUnit = errors.New("pipeline: malformed unit")

// HeaderStage inspects class headers.
type HeaderStage interface {
	VisitHeader(ctx context.Context, h classfile.Header)
}

// MethodStage rewrites method bodies.
type MethodStage interface {
	// WantsClass reports whether any method of the named class may be
	// rewritten. It decides whether the class is decoded in full at all.
	WantsClass(className string) bool
	// Wants reports whether the given method should be handed to Rewrite.
	Wants(className, methodName string) bool
	// Rewrite edits the method and reports whether its body changed.
	Rewrite(ctx context.Context, edit MethodEdit) (bool, error)
}

// ConstantAdder is the slice of the constant pool a method stage may use.
type ConstantAdder interface {
	AddClass(name string) (uint16, error)
	AddMethodref(owner, name, descriptor string) (uint16, error)
}

// MethodEdit is what a MethodStage gets to work with.
type MethodEdit struct {
	ClassName  string
	Name       string
	Descriptor string
	Static     bool
	Code       *classfile.Code
	Pool       ConstantAdder
}

// Output is the result of one Transform.
type Output struct {
	Data     []byte
	Header   classfile.Header
	Modified bool
	// Methods lists "name+descriptor" of every rewritten method.
	Methods []string
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	HeaderStages []HeaderStage
	MethodStages []MethodStage
}

// Transform runs data through every stage. Units no method stage touched
// are returned byte-identical. On error the original data is returned.
func (p *Pipeline) Transform(ctx context.Context, data []byte) (Output, error) {
	logger := ctxlog.FromContext(ctx)
	out := Output{Data: data}

	h, err := classfile.ParseHeader(data)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrMalformedUnit, err)
	}
	out.Header = h

	for _, s := range p.HeaderStages {
		s.VisitHeader(ctx, h)
	}

	var stages []MethodStage
	for _, s := range p.MethodStages {
		if s.WantsClass(h.Name) {
			stages = append(stages, s)
		}
	}
	if len(stages) == 0 {
		return out, nil
	}

	class, err := classfile.Parse(data)
	if err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrMalformedUnit, h.Name, err)
	}

	var touched []*classfile.Method
	for _, m := range class.Methods {
		if m.Code == nil {
			continue
		}
		edit := MethodEdit{
			ClassName:  h.Name,
			Name:       m.Name,
			Descriptor: m.Descriptor,
			Static:     m.IsStatic(),
			Code:       m.Code,
			Pool:       class.Pool,
		}
		changed := false
		for _, s := range stages {
			if !s.Wants(h.Name, m.Name) {
				continue
			}
			ok, err := s.Rewrite(ctx, edit)
			if err != nil {
				return Output{Data: data, Header: h}, fmt.Errorf("rewrite %s.%s%s: %w", h.Name, m.Name, m.Descriptor, err)
			}
			changed = changed || ok
		}
		if changed {
			touched = append(touched, m)
		}
	}
	if len(touched) == 0 {
		return out, nil
	}

	for _, m := range touched {
		if err := m.Code.RecomputeFrames(); err != nil {
			return Output{Data: data, Header: h}, fmt.Errorf("recompute frames for %s.%s%s: %w", h.Name, m.Name, m.Descriptor, err)
		}
		out.Methods = append(out.Methods, m.Name+m.Descriptor)
	}

	encoded, err := class.Encode()
	if err != nil {
		return Output{Data: data, Header: h}, fmt.Errorf("encode %s: %w", h.Name, err)
	}
	logger.Debug("Unit rewritten.", "unit", h.Name, "methods", out.Methods)

	out.Data = encoded
	out.Modified = true
	return out, nil
}
