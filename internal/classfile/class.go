package classfile

import (
	"fmt"
)

// Magic is the first four bytes of every class file.
const Magic = 0xCAFEBABE

// Access flags used by the scan and injection passes.
const (
	AccPublic    = 0x0001
	AccStatic    = 0x0008
	AccInterface = 0x0200
	AccAbstract  = 0x0400
)

// Header is the part of a class the scan pass looks at.
type Header struct {
	Name       string
	SuperName  string
	Interfaces []string
	Access     uint16
}

// IsConcrete reports whether the class is neither abstract nor an interface.
func (h Header) IsConcrete() bool {
	return h.Access&(AccAbstract|AccInterface) == 0
}

// IsPublic reports whether the class is public.
func (h Header) IsPublic() bool {
	return h.Access&AccPublic != 0
}

// Implements reports whether iface is among the directly implemented interfaces.
func (h Header) Implements(iface string) bool {
	for _, i := range h.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// Attribute is an attribute kept as raw bytes.
type Attribute struct {
	NameIndex uint16
	Name      string
	Data      []byte
}

// Field is carried through unchanged.
type Field struct {
	Access     uint16
	NameIndex  uint16
	DescIndex  uint16
	Attributes []Attribute
}

// Method is one method_info. Code is decoded from the "Code" attribute when
// present; on Encode it replaces that attribute's bytes.
type Method struct {
	Access     uint16
	NameIndex  uint16
	DescIndex  uint16
	Name       string
	Descriptor string
	Attributes []Attribute
	Code       *Code

	codeAttr int
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// Class is a decoded class file.
type Class struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         *ConstantPool
	Access       uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Field
	Methods      []*Method
	Attributes   []Attribute
}

// Header resolves the class's names from its constant pool.
func (c *Class) Header() (Header, error) {
	return resolveHeader(c.Pool, c.Access, c.ThisClass, c.SuperClass, c.Interfaces)
}

// Name returns the class's internal name, or "" when it cannot be resolved.
func (c *Class) Name() string {
	n, err := c.Pool.ClassName(c.ThisClass)
	if err != nil {
		return ""
	}
	return n
}

// ParseHeader decodes a class file only as far as its interface table.
func ParseHeader(b []byte) (Header, error) {
	r := newReader(b)
	_, _, pool, err := readPreamble(r)
	if err != nil {
		return Header{}, err
	}
	access, this, super, ifaces := readClassInfo(r)
	if r.err != nil {
		return Header{}, r.err
	}
	return resolveHeader(pool, access, this, super, ifaces)
}

// Parse decodes a complete class file.
func Parse(b []byte) (*Class, error) {
	r := newReader(b)
	minor, major, pool, err := readPreamble(r)
	if err != nil {
		return nil, err
	}
	c := &Class{MinorVersion: minor, MajorVersion: major, Pool: pool}
	c.Access, c.ThisClass, c.SuperClass, c.Interfaces = readClassInfo(r)

	fieldCount := int(r.u2())
	for i := 0; i < fieldCount && r.err == nil; i++ {
		f := Field{Access: r.u2(), NameIndex: r.u2(), DescIndex: r.u2()}
		if f.Attributes, err = readAttributes(r, pool); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		c.Fields = append(c.Fields, f)
	}

	methodCount := int(r.u2())
	for i := 0; i < methodCount && r.err == nil; i++ {
		m, err := readMethod(r, pool)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		c.Methods = append(c.Methods, m)
	}

	if c.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

// Encode serializes the class. It fails with ErrFramesStale when a method
// body was spliced without a following RecomputeFrames.
func (c *Class) Encode() ([]byte, error) {
	w := &writer{}
	w.u4(Magic)
	w.u2(c.MinorVersion)
	w.u2(c.MajorVersion)
	c.Pool.write(w)
	w.u2(c.Access)
	w.u2(c.ThisClass)
	w.u2(c.SuperClass)
	w.u2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		w.u2(i)
	}

	w.u2(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		w.u2(f.Access)
		w.u2(f.NameIndex)
		w.u2(f.DescIndex)
		writeAttributes(w, f.Attributes)
	}

	w.u2(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		if m.Code != nil {
			data, err := m.Code.encode()
			if err != nil {
				return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
			}
			m.Attributes[m.codeAttr].Data = data
		}
		w.u2(m.Access)
		w.u2(m.NameIndex)
		w.u2(m.DescIndex)
		writeAttributes(w, m.Attributes)
	}

	writeAttributes(w, c.Attributes)
	return w.buf, nil
}

// Method returns the first method with the given name, or nil.
func (c *Class) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func readPreamble(r *reader) (minor, major uint16, pool *ConstantPool, err error) {
	magic := r.u4()
	if r.err != nil {
		return 0, 0, nil, r.err
	}
	if magic != Magic {
		return 0, 0, nil, fmt.Errorf("%w: %#x", ErrBadMagic, magic)
	}
	minor = r.u2()
	major = r.u2()
	pool, err = readConstantPool(r)
	return minor, major, pool, err
}

func readClassInfo(r *reader) (access, this, super uint16, ifaces []uint16) {
	access = r.u2()
	this = r.u2()
	super = r.u2()
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		ifaces = append(ifaces, r.u2())
	}
	return access, this, super, ifaces
}

func resolveHeader(pool *ConstantPool, access, this, super uint16, ifaces []uint16) (Header, error) {
	h := Header{Access: access}
	var err error
	if h.Name, err = pool.ClassName(this); err != nil {
		return Header{}, fmt.Errorf("this_class: %w", err)
	}
	// java/lang/Object and module-info have no superclass.
	if super != 0 {
		if h.SuperName, err = pool.ClassName(super); err != nil {
			return Header{}, fmt.Errorf("super_class: %w", err)
		}
	}
	for _, i := range ifaces {
		name, err := pool.ClassName(i)
		if err != nil {
			return Header{}, fmt.Errorf("interfaces: %w", err)
		}
		h.Interfaces = append(h.Interfaces, name)
	}
	return h, nil
}

func readMethod(r *reader, pool *ConstantPool) (*Method, error) {
	m := &Method{Access: r.u2(), NameIndex: r.u2(), DescIndex: r.u2(), codeAttr: -1}
	if r.err != nil {
		return nil, r.err
	}
	var err error
	if m.Name, err = pool.Utf8(m.NameIndex); err != nil {
		return nil, err
	}
	if m.Descriptor, err = pool.Utf8(m.DescIndex); err != nil {
		return nil, err
	}
	if m.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, err
	}
	for i, a := range m.Attributes {
		if a.Name != "Code" {
			continue
		}
		if m.Code, err = parseCode(a.Data, pool); err != nil {
			return nil, fmt.Errorf("%s%s: %w", m.Name, m.Descriptor, err)
		}
		m.codeAttr = i
		break
	}
	return m, nil
}

func readAttributes(r *reader, pool *ConstantPool) ([]Attribute, error) {
	n := int(r.u2())
	attrs := make([]Attribute, 0, n)
	for i := 0; i < n; i++ {
		a := Attribute{NameIndex: r.u2()}
		a.Data = r.bytes(int(r.u4()))
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.Utf8(a.NameIndex)
		if err != nil {
			return nil, fmt.Errorf("attribute name: %w", err)
		}
		a.Name = name
		attrs = append(attrs, a)
	}
	return attrs, r.err
}

func writeAttributes(w *writer, attrs []Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.NameIndex)
		w.u4(uint32(len(a.Data)))
		w.bytes(a.Data)
	}
}
