package classfile

// DefaultMajorVersion is the Java 8 class file version, the oldest one that
// requires stack map frames.
const DefaultMajorVersion = 52

// NewClass starts an empty class with the given header. Interfaces and the
// superclass are added to a fresh constant pool.
func NewClass(h Header) (*Class, error) {
	pool := NewConstantPool()
	c := &Class{MajorVersion: DefaultMajorVersion, Pool: pool, Access: h.Access}
	var err error
	if c.ThisClass, err = pool.AddClass(h.Name); err != nil {
		return nil, err
	}
	if h.SuperName != "" {
		if c.SuperClass, err = pool.AddClass(h.SuperName); err != nil {
			return nil, err
		}
	}
	for _, name := range h.Interfaces {
		i, err := pool.AddClass(name)
		if err != nil {
			return nil, err
		}
		c.Interfaces = append(c.Interfaces, i)
	}
	return c, nil
}

// NewCode builds a method body from raw bytecode.
func NewCode(maxStack, maxLocals uint16, bytecode []byte, handlers ...ExceptionHandler) *Code {
	return &Code{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Bytecode:       bytecode,
		ExceptionTable: handlers,
		modified:       true,
		framesLoaded:   true,
		baseMaxStack:   maxStack,
	}
}

// AddMethod appends a method. A nil code produces an abstract or native
// method without a Code attribute.
func (c *Class) AddMethod(access uint16, name, descriptor string, code *Code) (*Method, error) {
	m := &Method{Access: access, Name: name, Descriptor: descriptor, Code: code, codeAttr: -1}
	var err error
	if m.NameIndex, err = c.Pool.AddUtf8(name); err != nil {
		return nil, err
	}
	if m.DescIndex, err = c.Pool.AddUtf8(descriptor); err != nil {
		return nil, err
	}
	if code != nil {
		ni, err := c.Pool.AddUtf8("Code")
		if err != nil {
			return nil, err
		}
		m.Attributes = append(m.Attributes, Attribute{NameIndex: ni, Name: "Code"})
		m.codeAttr = len(m.Attributes) - 1
	}
	c.Methods = append(c.Methods, m)
	return m, nil
}

// SetFrames attaches a StackMapTable with the given frames to code.
func (c *Class) SetFrames(code *Code, frames []Frame) error {
	return c.setCodeAttribute(code, "StackMapTable", func() ([]byte, error) {
		code.frames = frames
		code.framesLoaded = true
		return encodeStackMap(frames)
	})
}

// LineNumber maps a bytecode offset to a source line.
type LineNumber struct {
	StartPC uint16
	Line    uint16
}

// SetLineNumbers attaches a LineNumberTable to code.
func (c *Class) SetLineNumbers(code *Code, lines []LineNumber) error {
	return c.setCodeAttribute(code, "LineNumberTable", func() ([]byte, error) {
		out := appendU2(nil, uint16(len(lines)))
		for _, l := range lines {
			out = appendU2(appendU2(out, l.StartPC), l.Line)
		}
		return out, nil
	})
}

// LineNumbers decodes the LineNumberTable of code, if any.
func (c *Code) LineNumbers() ([]LineNumber, error) {
	for _, a := range c.Attributes {
		if a.Name != "LineNumberTable" {
			continue
		}
		r := newReader(a.Data)
		n := int(r.u2())
		out := make([]LineNumber, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, LineNumber{StartPC: r.u2(), Line: r.u2()})
		}
		return out, r.err
	}
	return nil, nil
}

func (c *Class) setCodeAttribute(code *Code, name string, data func() ([]byte, error)) error {
	ni, err := c.Pool.AddUtf8(name)
	if err != nil {
		return err
	}
	b, err := data()
	if err != nil {
		return err
	}
	for i, a := range code.Attributes {
		if a.Name == name {
			code.Attributes[i].Data = b
			return nil
		}
	}
	code.Attributes = append(code.Attributes, Attribute{NameIndex: ni, Name: name, Data: b})
	return nil
}
