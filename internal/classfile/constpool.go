package classfile

import "fmt"

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Constant is one constant pool slot. Data holds the payload after the tag;
// for Utf8 it is the modified UTF-8 bytes without the length prefix. The second slot
// taken by a Long or Double has Tag 0.
type Constant struct {
	Tag  uint8
	Data []byte
}

// ConstantPool is the decoded constant pool of a class. Slot 0 is unused,
// matching the one-based indices used throughout the class file.
type ConstantPool struct {
	entries []Constant

	// dedup indices, built on the first Add call.
	indexed bool
	byKey   map[string]uint16
}

// Len returns the constant_pool_count value: the number of slots plus one.
func (p *ConstantPool) Len() int {
	return len(p.entries)
}

// At returns the constant at index i.
func (p *ConstantPool) At(i uint16) (Constant, error) {
	if i == 0 || int(i) >= len(p.entries) || p.entries[i].Tag == 0 {
		return Constant{}, fmt.Errorf("%w: index %d out of range", ErrBadConstant, i)
	}
	return p.entries[i], nil
}

// Utf8 returns the string held by the Utf8 constant at index i.
func (p *ConstantPool) Utf8(i uint16) (string, error) {
	c, err := p.At(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagUtf8 {
		return "", fmt.Errorf("%w: index %d is tag %d, want Utf8", ErrBadConstant, i, c.Tag)
	}
	return decodeModifiedUTF8(c.Data)
}

// ClassName returns the internal name referenced by the Class constant at i.
func (p *ConstantPool) ClassName(i uint16) (string, error) {
	c, err := p.At(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagClass || len(c.Data) != 2 {
		return "", fmt.Errorf("%w: index %d is tag %d, want Class", ErrBadConstant, i, c.Tag)
	}
	return p.Utf8(uint16(c.Data[0])<<8 | uint16(c.Data[1]))
}

// AddUtf8 returns the index of a Utf8 constant holding s, appending one when
// none exists. s is stored in modified UTF-8.
func (p *ConstantPool) AddUtf8(s string) (uint16, error) {
	return p.add(TagUtf8, encodeModifiedUTF8(s))
}

// AddClass returns the index of a Class constant naming the internal class name.
func (p *ConstantPool) AddClass(name string) (uint16, error) {
	ni, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	return p.add(TagClass, appendU2(nil, ni))
}

// AddNameAndType returns the index of a NameAndType constant.
func (p *ConstantPool) AddNameAndType(name, descriptor string) (uint16, error) {
	ni, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	di, err := p.AddUtf8(descriptor)
	if err != nil {
		return 0, err
	}
	return p.add(TagNameAndType, appendU2(appendU2(nil, ni), di))
}

// AddMethodref returns the index of a Methodref constant for owner.name:descriptor.
func (p *ConstantPool) AddMethodref(owner, name, descriptor string) (uint16, error) {
	ci, err := p.AddClass(owner)
	if err != nil {
		return 0, err
	}
	nti, err := p.AddNameAndType(name, descriptor)
	if err != nil {
		return 0, err
	}
	return p.add(TagMethodref, appendU2(appendU2(nil, ci), nti))
}

func (p *ConstantPool) add(tag uint8, data []byte) (uint16, error) {
	p.index()
	key := constKey(tag, data)
	if i, ok := p.byKey[key]; ok {
		return i, nil
	}
	if len(p.entries) == 0 {
		p.entries = append(p.entries, Constant{})
	}
	if len(p.entries) >= 0xFFFF {
		return 0, ErrPoolOverflow
	}
	i := uint16(len(p.entries))
	p.entries = append(p.entries, Constant{Tag: tag, Data: data})
	p.byKey[key] = i
	return i, nil
}

func (p *ConstantPool) index() {
	if p.indexed {
		return
	}
	p.byKey = make(map[string]uint16, len(p.entries))
	for i := 1; i < len(p.entries); i++ {
		c := p.entries[i]
		if c.Tag == 0 {
			continue
		}
		key := constKey(c.Tag, c.Data)
		if _, dup := p.byKey[key]; !dup {
			p.byKey[key] = uint16(i)
		}
	}
	p.indexed = true
}

func constKey(tag uint8, data []byte) string {
	return string(rune(tag)) + string(data)
}

// constantSize is the payload size of fixed-length constants.
func constantSize(tag uint8) (int, bool) {
	switch tag {
	case TagInteger, TagFloat, TagFieldref, TagMethodref, TagInterfaceMethodref,
		TagNameAndType, TagDynamic, TagInvokeDynamic:
		return 4, true
	case TagLong, TagDouble:
		return 8, true
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return 2, true
	case TagMethodHandle:
		return 3, true
	}
	return 0, false
}

func readConstantPool(r *reader) (*ConstantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	p := &ConstantPool{entries: make([]Constant, 1, count)}
	for i := 1; i < count; i++ {
		tag := r.u1()
		var data []byte
		if tag == TagUtf8 {
			data = r.bytes(int(r.u2()))
		} else {
			size, ok := constantSize(tag)
			if !ok {
				if r.err != nil {
					return nil, r.err
				}
				return nil, fmt.Errorf("%w: unknown tag %d at index %d", ErrBadConstant, tag, i)
			}
			data = r.bytes(size)
		}
		if r.err != nil {
			return nil, r.err
		}
		p.entries = append(p.entries, Constant{Tag: tag, Data: data})
		if tag == TagLong || tag == TagDouble {
			p.entries = append(p.entries, Constant{})
			i++
		}
	}
	return p, nil
}

func (p *ConstantPool) write(w *writer) {
	w.u2(uint16(len(p.entries)))
	for i := 1; i < len(p.entries); i++ {
		c := p.entries[i]
		if c.Tag == 0 {
			continue
		}
		w.u1(c.Tag)
		if c.Tag == TagUtf8 {
			w.u2(uint16(len(c.Data)))
		}
		w.bytes(c.Data)
	}
}

// NewConstantPool returns an empty pool ready for Add calls.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{entries: make([]Constant, 1)}
}
