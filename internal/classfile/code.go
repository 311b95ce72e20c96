package classfile

import "fmt"

// ExceptionHandler is one exception_table entry.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// Code is a decoded Code attribute.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute

	raw          []byte
	modified     bool
	framesStale  bool
	frames       []Frame
	framesLoaded bool
	baseMaxStack uint16
	stackGrowth  int
}

// Modified reports whether the body has been spliced.
func (c *Code) Modified() bool {
	return c.modified
}

// FramesStale reports whether RecomputeFrames is still owed.
func (c *Code) FramesStale() bool {
	return c.framesStale
}

// Frames returns the decoded stack map frames with absolute offsets.
func (c *Code) Frames() ([]Frame, error) {
	return c.stackMap()
}

func parseCode(data []byte, pool *ConstantPool) (*Code, error) {
	r := newReader(data)
	c := &Code{raw: data}
	c.MaxStack = r.u2()
	c.MaxLocals = r.u2()
	c.Bytecode = r.bytes(int(r.u4()))
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		c.ExceptionTable = append(c.ExceptionTable, ExceptionHandler{
			StartPC: r.u2(), EndPC: r.u2(), HandlerPC: r.u2(), CatchType: r.u2(),
		})
	}
	if r.err != nil {
		return nil, r.err
	}
	attrs, err := readAttributes(r, pool)
	if err != nil {
		return nil, err
	}
	c.Attributes = attrs
	c.baseMaxStack = c.MaxStack
	return c, nil
}

// encode returns the Code attribute payload. An unmodified body is returned
// exactly as it was read.
func (c *Code) encode() ([]byte, error) {
	if !c.modified {
		return c.raw, nil
	}
	if c.framesStale {
		return nil, ErrFramesStale
	}
	w := &writer{}
	w.u2(c.MaxStack)
	w.u2(c.MaxLocals)
	w.u4(uint32(len(c.Bytecode)))
	w.bytes(c.Bytecode)
	w.u2(uint16(len(c.ExceptionTable)))
	for _, h := range c.ExceptionTable {
		w.u2(h.StartPC)
		w.u2(h.EndPC)
		w.u2(h.HandlerPC)
		w.u2(h.CatchType)
	}
	writeAttributes(w, c.Attributes)
	return w.buf, nil
}

// stackMap decodes the StackMapTable once and caches the result.
func (c *Code) stackMap() ([]Frame, error) {
	if c.framesLoaded {
		return c.frames, nil
	}
	for _, a := range c.Attributes {
		if a.Name != "StackMapTable" {
			continue
		}
		frames, err := decodeStackMap(a.Data)
		if err != nil {
			return nil, err
		}
		c.frames = frames
		break
	}
	c.framesLoaded = true
	return c.frames, nil
}

// RecomputeFrames rebuilds the verification metadata of a spliced body: the
// StackMapTable is re-encoded from the relocated frames, choosing each
// frame's encoding for its new offset delta, and MaxStack is raised by the
// largest stack growth any splice declared. It is a no-op for unmodified code.
func (c *Code) RecomputeFrames() error {
	if !c.framesStale {
		return nil
	}
	maxStack := int(c.baseMaxStack) + c.stackGrowth
	if maxStack > 0xFFFF {
		return fmt.Errorf("%w: max_stack %d", ErrCodeTooLarge, maxStack)
	}
	c.MaxStack = uint16(maxStack)

	for i, a := range c.Attributes {
		if a.Name != "StackMapTable" {
			continue
		}
		data, err := encodeStackMap(c.frames)
		if err != nil {
			return err
		}
		c.Attributes[i].Data = data
	}
	c.framesStale = false
	return nil
}
