package classfile

import (
	"fmt"
	"math"
)

// InsertBeforeReturns places seq in front of every return instruction of the
// body and relocates everything that refers to bytecode offsets: branches,
// switch tables (re-padded for their new position), the exception table,
// line number and local variable tables, and stack map frames. A branch or
// range boundary that pointed at a return afterwards points at the start of
// the sequence inserted before it.
//
// stackGrowth is the extra operand stack depth seq needs; the largest value
// seen is applied to MaxStack by RecomputeFrames. It returns the number of
// return points that received seq. On error the Code is left untouched.
func (c *Code) InsertBeforeReturns(seq []byte, stackGrowth int) (int, error) {
	if len(seq) == 0 {
		return 0, nil
	}
	insns, err := Decode(c.Bytecode)
	if err != nil {
		return 0, err
	}
	frames, err := c.stackMap()
	if err != nil {
		return 0, err
	}

	// Layout pass: starts maps an old instruction offset to the new offset
	// of whatever now sits in front of it (the inserted sequence, if any).
	starts := make(map[int]int, len(insns)+1)
	moved := make([]int, len(insns))
	pos, touched := 0, 0
	for i, in := range insns {
		starts[in.Offset] = pos
		if in.IsReturn() {
			pos += len(seq)
			touched++
		}
		moved[i] = pos
		pos += in.lengthAt(pos)
	}
	starts[len(c.Bytecode)] = pos
	if touched == 0 {
		return 0, nil
	}
	if pos > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d bytes", ErrCodeTooLarge, pos)
	}

	reloc := func(old int) (int, error) {
		n, ok := starts[old]
		if !ok {
			return 0, fmt.Errorf("%w: offset %d is not an instruction boundary", ErrBadBytecode, old)
		}
		return n, nil
	}

	code := make([]byte, 0, pos)
	for i, in := range insns {
		if in.IsReturn() {
			code = append(code, seq...)
		}
		if code, err = c.emit(code, in, moved[i], reloc); err != nil {
			return 0, err
		}
	}

	handlers := make([]ExceptionHandler, len(c.ExceptionTable))
	for i, h := range c.ExceptionTable {
		nh := h
		for _, f := range []*uint16{&nh.StartPC, &nh.EndPC, &nh.HandlerPC} {
			n, err := reloc(int(*f))
			if err != nil {
				return 0, fmt.Errorf("exception table entry %d: %w", i, err)
			}
			*f = uint16(n)
		}
		handlers[i] = nh
	}

	attrs := make([]Attribute, 0, len(c.Attributes))
	for _, a := range c.Attributes {
		switch a.Name {
		case "LineNumberTable":
			if a.Data, err = relocateLineNumbers(a.Data, reloc); err != nil {
				return 0, fmt.Errorf("%s: %w", a.Name, err)
			}
		case "LocalVariableTable", "LocalVariableTypeTable":
			if a.Data, err = relocateLocalVariables(a.Data, reloc); err != nil {
				return 0, fmt.Errorf("%s: %w", a.Name, err)
			}
		case "RuntimeVisibleTypeAnnotations", "RuntimeInvisibleTypeAnnotations":
			// Their targets carry offsets into the old body; drop them.
			continue
		}
		attrs = append(attrs, a)
	}

	newFrames, err := relocateFrames(frames, reloc)
	if err != nil {
		return 0, err
	}

	c.Bytecode = code
	c.ExceptionTable = handlers
	c.Attributes = attrs
	c.frames = newFrames
	c.modified = true
	c.framesStale = true
	if stackGrowth > c.stackGrowth {
		c.stackGrowth = stackGrowth
	}
	return touched, nil
}

// emit appends in, placed at offset at, with its branch targets relocated.
func (c *Code) emit(code []byte, in Instruction, at int, reloc func(int) (int, error)) ([]byte, error) {
	target := func(rel int32) (int, error) {
		n, err := reloc(in.Offset + int(rel))
		if err != nil {
			return 0, err
		}
		return n - at, nil
	}

	switch {
	case in.IsBranch16():
		d, err := target(in.Branch)
		if err != nil {
			return nil, err
		}
		if d < math.MinInt16 || d > math.MaxInt16 {
			return nil, fmt.Errorf("%w: opcode %#x at %d jumps %d", ErrBranchOverflow, in.Opcode, in.Offset, d)
		}
		code = append(code, in.Opcode)
		return appendU2(code, uint16(int16(d))), nil

	case in.IsBranch32():
		d, err := target(in.Branch)
		if err != nil {
			return nil, err
		}
		code = append(code, in.Opcode)
		return appendU4(code, uint32(int32(d))), nil

	case in.IsSwitch():
		code = append(code, in.Opcode)
		for i := 0; i < switchPadding(at); i++ {
			code = append(code, 0)
		}
		d, err := target(in.Default)
		if err != nil {
			return nil, err
		}
		code = appendU4(code, uint32(int32(d)))
		if in.Opcode == OpTableswitch {
			code = appendU4(code, uint32(in.Keys[0]))
			code = appendU4(code, uint32(in.Keys[len(in.Keys)-1]))
		} else {
			code = appendU4(code, uint32(len(in.Keys)))
		}
		for i, t := range in.Targets {
			d, err := target(t)
			if err != nil {
				return nil, err
			}
			if in.Opcode == OpLookupswitch {
				code = appendU4(code, uint32(in.Keys[i]))
			}
			code = appendU4(code, uint32(int32(d)))
		}
		return code, nil
	}

	return append(code, c.Bytecode[in.Offset:in.Offset+in.Length]...), nil
}

func relocateLineNumbers(data []byte, reloc func(int) (int, error)) ([]byte, error) {
	r := newReader(data)
	n := int(r.u2())
	out := appendU2(nil, uint16(n))
	for i := 0; i < n; i++ {
		start, line := r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		ns, err := reloc(int(start))
		if err != nil {
			return nil, err
		}
		out = appendU2(appendU2(out, uint16(ns)), line)
	}
	return out, nil
}

func relocateLocalVariables(data []byte, reloc func(int) (int, error)) ([]byte, error) {
	r := newReader(data)
	n := int(r.u2())
	out := appendU2(nil, uint16(n))
	for i := 0; i < n; i++ {
		start, length, name, desc, index := r.u2(), r.u2(), r.u2(), r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		ns, err := reloc(int(start))
		if err != nil {
			return nil, err
		}
		ne, err := reloc(int(start) + int(length))
		if err != nil {
			return nil, err
		}
		out = appendU2(out, uint16(ns))
		out = appendU2(out, uint16(ne-ns))
		out = appendU2(out, name)
		out = appendU2(out, desc)
		out = appendU2(out, index)
	}
	return out, nil
}
