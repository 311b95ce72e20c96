package classfile

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClass(t *testing.T, h Header) *Class {
	t.Helper()
	c, err := NewClass(h)
	require.NoError(t, err)
	return c
}

func encode(t *testing.T, c *Class) []byte {
	t.Helper()
	b, err := c.Encode()
	require.NoError(t, err)
	return b
}

func TestParseHeader(t *testing.T) {
	c := newTestClass(t, Header{
		Name:       "com/app/PluginA",
		SuperName:  "java/lang/Object",
		Interfaces: []string{"com/app/Plugin", "java/io/Serializable"},
		Access:     AccPublic,
	})

	h, err := ParseHeader(encode(t, c))
	require.NoError(t, err)

	want := Header{
		Name:       "com/app/PluginA",
		SuperName:  "java/lang/Object",
		Interfaces: []string{"com/app/Plugin", "java/io/Serializable"},
		Access:     AccPublic,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, h.IsPublic())
	assert.True(t, h.IsConcrete())
	assert.True(t, h.Implements("com/app/Plugin"))
	assert.False(t, h.Implements("com/app/Other"))
}

func TestHeader_AccessPredicates(t *testing.T) {
	assert.False(t, Header{Access: AccPublic | AccAbstract}.IsConcrete())
	assert.False(t, Header{Access: AccPublic | AccInterface | AccAbstract}.IsConcrete())
	assert.False(t, Header{Access: 0}.IsPublic())
}

func TestParse_RoundTripIsByteIdentical(t *testing.T) {
	c := newTestClass(t, Header{Name: "com/app/Registry", SuperName: "java/lang/Object", Access: AccPublic})
	_, err := c.AddMethod(AccPublic|AccStatic, "init", "()V", NewCode(0, 0, []byte{OpReturn}))
	require.NoError(t, err)
	_, err = c.AddMethod(AccPublic|AccAbstract, "abstractOne", "()V", nil)
	require.NoError(t, err)

	original := encode(t, c)
	parsed, err := Parse(original)
	require.NoError(t, err)

	assert.Equal(t, original, encode(t, parsed))
	require.Len(t, parsed.Methods, 2)
	assert.Equal(t, "init", parsed.Methods[0].Name)
	assert.True(t, parsed.Methods[0].IsStatic())
	require.NotNil(t, parsed.Methods[0].Code)
	assert.Equal(t, []byte{OpReturn}, parsed.Methods[0].Code.Bytecode)
	assert.Nil(t, parsed.Methods[1].Code)
	assert.Same(t, parsed.Methods[0], parsed.Method("init"))
	assert.Nil(t, parsed.Method("missing"))
	assert.Equal(t, "com/app/Registry", parsed.Name())
}

func TestParse_BadMagic(t *testing.T) {
	_, err := Parse([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52})
	require.ErrorIs(t, err, ErrBadMagic)

	_, err = ParseHeader([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestParse_Truncated(t *testing.T) {
	c := newTestClass(t, Header{Name: "A", SuperName: "java/lang/Object", Access: AccPublic})
	b := encode(t, c)

	for _, n := range []int{0, 3, 9, len(b) - 1} {
		_, err := Parse(b[:n])
		require.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", n)
	}
}

func TestParse_WideConstantsTakeTwoSlots(t *testing.T) {
	// Hand-written pool: #1 Long, (#2 unusable), #3 Utf8 "A", #4 Class #3.
	w := &writer{}
	w.u4(Magic)
	w.u2(0)
	w.u2(52)
	w.u2(5)
	w.u1(TagLong)
	w.bytes(make([]byte, 8))
	w.u1(TagUtf8)
	w.u2(1)
	w.bytes([]byte("A"))
	w.u1(TagClass)
	w.u2(3)
	w.u2(AccPublic) // access
	w.u2(4)         // this
	w.u2(0)         // super
	w.u2(0)         // interfaces
	w.u2(0)         // fields
	w.u2(0)         // methods
	w.u2(0)         // attributes

	c, err := Parse(w.buf)
	require.NoError(t, err)
	assert.Equal(t, "A", c.Name())
	_, err = c.Pool.At(2)
	require.ErrorIs(t, err, ErrBadConstant)
	assert.Equal(t, w.buf, encode(t, c))
}

func TestConstantPool_AddDeduplicates(t *testing.T) {
	p := NewConstantPool()
	a, err := p.AddMethodref("com/app/Registry", "add", "(Lcom/app/Plugin;)V")
	require.NoError(t, err)
	b, err := p.AddMethodref("com/app/Registry", "add", "(Lcom/app/Plugin;)V")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	cls, err := p.AddClass("com/app/Registry")
	require.NoError(t, err)
	name, err := p.ClassName(cls)
	require.NoError(t, err)
	assert.Equal(t, "com/app/Registry", name)

	_, err = p.ClassName(a)
	require.ErrorIs(t, err, ErrBadConstant, "a Methodref is not a Class")
}

func TestConstantPool_Overflow(t *testing.T) {
	p := NewConstantPool()
	var err error
	for i := 0; err == nil; i++ {
		_, err = p.AddUtf8(fmt.Sprintf("c%d", i))
		if i > 70000 {
			t.Fatal("pool never overflowed")
		}
	}
	require.ErrorIs(t, err, ErrPoolOverflow)
	assert.Equal(t, 0xFFFF, p.Len())
}
