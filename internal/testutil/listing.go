package testutil

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/classfile"
)

var mnemonics = map[uint8]string{
	0x00:                        "nop",
	0x03:                        "iconst_0",
	classfile.OpAload0:          "aload_0",
	classfile.OpDup:             "dup",
	classfile.OpIfeq:            "ifeq",
	classfile.OpGoto:            "goto",
	classfile.OpReturn:          "return",
	classfile.OpIreturn:         "ireturn",
	classfile.OpAreturn:         "areturn",
	classfile.OpNew:             "new",
	classfile.OpInvokevirtual:   "invokevirtual",
	classfile.OpInvokespecial:   "invokespecial",
	classfile.OpInvokestatic:    "invokestatic",
	classfile.OpInvokeinterface: "invokeinterface",
}

// Listing decodes the named method of an encoded class into one line per
// instruction, with class and method references resolved:
//
//	new com/app/PluginA
//	invokespecial com/app/PluginA.<init>()V
//
// Branch operands are omitted.
func Listing(t testing.TB, data []byte, method string) []string {
	t.Helper()
	c, err := classfile.Parse(data)
	require.NoError(t, err)
	m := c.Method(method)
	require.NotNil(t, m, "method %s not found", method)
	require.NotNil(t, m.Code, "method %s has no body", method)

	insns, err := classfile.Decode(m.Code.Bytecode)
	require.NoError(t, err)

	out := make([]string, 0, len(insns))
	for _, in := range insns {
		name, ok := mnemonics[in.Opcode]
		if !ok {
			name = fmt.Sprintf("op_%02x", in.Opcode)
		}
		switch in.Opcode {
		case classfile.OpNew:
			idx := binary.BigEndian.Uint16(m.Code.Bytecode[in.Offset+1:])
			cls, err := c.Pool.ClassName(idx)
			require.NoError(t, err)
			name += " " + cls
		case classfile.OpInvokevirtual, classfile.OpInvokespecial, classfile.OpInvokestatic:
			idx := binary.BigEndian.Uint16(m.Code.Bytecode[in.Offset+1:])
			name += " " + methodRef(t, c.Pool, idx)
		}
		out = append(out, name)
	}
	return out
}

// MaxStack returns the max_stack value of the named method.
func MaxStack(t testing.TB, data []byte, method string) int {
	t.Helper()
	c, err := classfile.Parse(data)
	require.NoError(t, err)
	m := c.Method(method)
	require.NotNil(t, m)
	require.NotNil(t, m.Code)
	return int(m.Code.MaxStack)
}

func methodRef(t testing.TB, pool *classfile.ConstantPool, idx uint16) string {
	t.Helper()
	ref, err := pool.At(idx)
	require.NoError(t, err)
	require.EqualValues(t, classfile.TagMethodref, ref.Tag)

	owner, err := pool.ClassName(binary.BigEndian.Uint16(ref.Data))
	require.NoError(t, err)
	nat, err := pool.At(binary.BigEndian.Uint16(ref.Data[2:]))
	require.NoError(t, err)
	name, err := pool.Utf8(binary.BigEndian.Uint16(nat.Data))
	require.NoError(t, err)
	desc, err := pool.Utf8(binary.BigEndian.Uint16(nat.Data[2:]))
	require.NoError(t, err)
	return owner + "." + name + desc
}
