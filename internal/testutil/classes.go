package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/classfile"
)

// ObjectClass is the implicit superclass of every synthetic class.
const ObjectClass = "java/lang/Object"

// ClassBuilder assembles small but well-formed class files for tests.
type ClassBuilder struct {
	t     testing.TB
	class *classfile.Class
}

// NewClass starts a class with the given header. An empty SuperName defaults
// to java/lang/Object.
func NewClass(t testing.TB, h classfile.Header) *ClassBuilder {
	t.Helper()
	if h.SuperName == "" {
		h.SuperName = ObjectClass
	}
	c, err := classfile.NewClass(h)
	require.NoError(t, err)
	return &ClassBuilder{t: t, class: c}
}

// Method adds a void, no-argument method with the given number of return
// points. Every return but the last sits behind an always-taken branch, so
// the body carries one stack map frame per extra return.
//
//	0: iconst_0
//	1: ifeq +4 (-> 5)
//	4: return
//	5: ...
func (b *ClassBuilder) Method(name string, static bool, returns int) *ClassBuilder {
	b.t.Helper()
	require.Positive(b.t, returns)

	var code []byte
	var frames []classfile.Frame
	for i := 0; i < returns-1; i++ {
		code = append(code, 0x03, classfile.OpIfeq, 0x00, 0x04, classfile.OpReturn)
		frames = append(frames, classfile.Frame{Kind: classfile.FrameSame, Offset: len(code)})
	}
	code = append(code, classfile.OpReturn)

	access := uint16(classfile.AccPublic)
	locals := uint16(1)
	if static {
		access |= classfile.AccStatic
		locals = 0
	}
	body := classfile.NewCode(1, locals, code)
	_, err := b.class.AddMethod(access, name, "()V", body)
	require.NoError(b.t, err)
	if len(frames) > 0 {
		require.NoError(b.t, b.class.SetFrames(body, frames))
	}
	return b
}

// Bytes encodes the class.
func (b *ClassBuilder) Bytes() []byte {
	b.t.Helper()
	data, err := b.class.Encode()
	require.NoError(b.t, err)
	return data
}

// Plugin encodes a public concrete class implementing ifaces, with a default
// constructor.
func Plugin(t testing.TB, name string, ifaces ...string) []byte {
	t.Helper()
	return NewClass(t, classfile.Header{Name: name, Interfaces: ifaces, Access: classfile.AccPublic}).
		Method("<init>", false, 1).
		Bytes()
}

// Target encodes a public class holding one injection target method.
func Target(t testing.TB, name, method string, static bool, returns int) []byte {
	t.Helper()
	return NewClass(t, classfile.Header{Name: name, Access: classfile.AccPublic}).
		Method(method, static, returns).
		Bytes()
}
