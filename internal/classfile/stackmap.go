package classfile

import "fmt"

// Verification type tags.
const (
	VTTop               = 0
	VTInteger           = 1
	VTFloat             = 2
	VTDouble            = 3
	VTLong              = 4
	VTNull              = 5
	VTUninitializedThis = 6
	VTObject            = 7
	VTUninitialized     = 8
)

// VerificationType is one verification_type_info. Index is the constant pool
// class index for VTObject and the offset of the creating new instruction
// for VTUninitialized.
type VerificationType struct {
	Tag   uint8
	Index uint16
}

// FrameKind is the logical shape of a frame, independent of how its offset
// delta happens to be encoded.
type FrameKind uint8

const (
	FrameSame FrameKind = iota
	FrameSameLocals1
	FrameChop
	FrameAppend
	FrameFull
)

// Frame is a stack map frame at an absolute bytecode offset. Chop is the
// number of locals removed for FrameChop; Locals holds the appended locals
// for FrameAppend and all locals for FrameFull; Stack holds the single stack
// item for FrameSameLocals1 and the full stack for FrameFull.
type Frame struct {
	Kind   FrameKind
	Offset int
	Chop   int
	Locals []VerificationType
	Stack  []VerificationType
}

func decodeStackMap(data []byte) ([]Frame, error) {
	r := newReader(data)
	n := int(r.u2())
	frames := make([]Frame, 0, n)
	prev := -1
	for i := 0; i < n && r.err == nil; i++ {
		t := r.u1()
		var f Frame
		var delta int
		switch {
		case t <= 63:
			f.Kind, delta = FrameSame, int(t)
		case t <= 127:
			f.Kind, delta = FrameSameLocals1, int(t-64)
			f.Stack = readVTs(r, 1)
		case t < 247:
			return nil, fmt.Errorf("%w: reserved frame type %d", ErrBadFrame, t)
		case t == 247:
			f.Kind, delta = FrameSameLocals1, int(r.u2())
			f.Stack = readVTs(r, 1)
		case t <= 250:
			f.Kind, delta, f.Chop = FrameChop, int(r.u2()), int(251-t)
		case t == 251:
			f.Kind, delta = FrameSame, int(r.u2())
		case t <= 254:
			f.Kind, delta = FrameAppend, int(r.u2())
			f.Locals = readVTs(r, int(t-251))
		default:
			f.Kind, delta = FrameFull, int(r.u2())
			f.Locals = readVTs(r, int(r.u2()))
			f.Stack = readVTs(r, int(r.u2()))
		}
		f.Offset = prev + delta + 1
		prev = f.Offset
		frames = append(frames, f)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, r.err)
	}
	return frames, nil
}

func readVTs(r *reader, n int) []VerificationType {
	out := make([]VerificationType, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		vt := VerificationType{Tag: r.u1()}
		if vt.Tag == VTObject || vt.Tag == VTUninitialized {
			vt.Index = r.u2()
		} else if vt.Tag > VTUninitialized {
			r.err = fmt.Errorf("unknown verification type %d", vt.Tag)
		}
		out = append(out, vt)
	}
	return out
}

func encodeStackMap(frames []Frame) ([]byte, error) {
	w := &writer{}
	w.u2(uint16(len(frames)))
	prev := -1
	for _, f := range frames {
		delta := f.Offset - prev - 1
		if delta < 0 || delta > 0xFFFF {
			return nil, fmt.Errorf("%w: offset %d after %d", ErrBadFrame, f.Offset, prev)
		}
		prev = f.Offset
		switch f.Kind {
		case FrameSame:
			if delta <= 63 {
				w.u1(uint8(delta))
			} else {
				w.u1(251)
				w.u2(uint16(delta))
			}
		case FrameSameLocals1:
			if len(f.Stack) != 1 {
				return nil, fmt.Errorf("%w: same_locals_1_stack_item with %d stack items", ErrBadFrame, len(f.Stack))
			}
			if delta <= 63 {
				w.u1(uint8(64 + delta))
			} else {
				w.u1(247)
				w.u2(uint16(delta))
			}
			writeVTs(w, f.Stack)
		case FrameChop:
			if f.Chop < 1 || f.Chop > 3 {
				return nil, fmt.Errorf("%w: chop of %d locals", ErrBadFrame, f.Chop)
			}
			w.u1(uint8(251 - f.Chop))
			w.u2(uint16(delta))
		case FrameAppend:
			if len(f.Locals) < 1 || len(f.Locals) > 3 {
				return nil, fmt.Errorf("%w: append of %d locals", ErrBadFrame, len(f.Locals))
			}
			w.u1(uint8(251 + len(f.Locals)))
			w.u2(uint16(delta))
			writeVTs(w, f.Locals)
		case FrameFull:
			w.u1(255)
			w.u2(uint16(delta))
			w.u2(uint16(len(f.Locals)))
			writeVTs(w, f.Locals)
			w.u2(uint16(len(f.Stack)))
			writeVTs(w, f.Stack)
		default:
			return nil, fmt.Errorf("%w: unknown frame kind %d", ErrBadFrame, f.Kind)
		}
	}
	return w.buf, nil
}

func writeVTs(w *writer, vts []VerificationType) {
	for _, vt := range vts {
		w.u1(vt.Tag)
		if vt.Tag == VTObject || vt.Tag == VTUninitialized {
			w.u2(vt.Index)
		}
	}
}

// relocateFrames moves every frame and every Uninitialized(offset) operand
// through reloc.
func relocateFrames(frames []Frame, reloc func(int) (int, error)) ([]Frame, error) {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		off, err := reloc(f.Offset)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		nf := Frame{Kind: f.Kind, Offset: off, Chop: f.Chop}
		if nf.Locals, err = relocateVTs(f.Locals, reloc); err != nil {
			return nil, err
		}
		if nf.Stack, err = relocateVTs(f.Stack, reloc); err != nil {
			return nil, err
		}
		out[i] = nf
	}
	return out, nil
}

func relocateVTs(vts []VerificationType, reloc func(int) (int, error)) ([]VerificationType, error) {
	if vts == nil {
		return nil, nil
	}
	out := make([]VerificationType, len(vts))
	for i, vt := range vts {
		out[i] = vt
		if vt.Tag != VTUninitialized {
			continue
		}
		off, err := reloc(int(vt.Index))
		if err != nil {
			return nil, fmt.Errorf("uninitialized(%d): %w", vt.Index, err)
		}
		out[i].Index = uint16(off)
	}
	return out, nil
}
