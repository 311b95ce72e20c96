package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackMap_RoundTripAllKinds(t *testing.T) {
	obj := VerificationType{Tag: VTObject, Index: 7}
	frames := []Frame{
		{Kind: FrameSame, Offset: 3},
		{Kind: FrameSameLocals1, Offset: 10, Stack: []VerificationType{{Tag: VTInteger}}},
		{Kind: FrameAppend, Offset: 20, Locals: []VerificationType{{Tag: VTInteger}, obj}},
		{Kind: FrameChop, Offset: 30, Chop: 2},
		{Kind: FrameSame, Offset: 200},
		{Kind: FrameSameLocals1, Offset: 300, Stack: []VerificationType{{Tag: VTNull}}},
		{Kind: FrameFull, Offset: 301,
			Locals: []VerificationType{{Tag: VTUninitializedThis}, {Tag: VTLong}},
			Stack:  []VerificationType{{Tag: VTUninitialized, Index: 250}}},
	}

	data, err := encodeStackMap(frames)
	require.NoError(t, err)
	got, err := decodeStackMap(data)
	require.NoError(t, err)
	assert.Equal(t, frames, got)
}

func TestStackMap_PicksExtendedFormsForLargeDeltas(t *testing.T) {
	data, err := encodeStackMap([]Frame{{Kind: FrameSame, Offset: 63}, {Kind: FrameSame, Offset: 128}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 2, 63, 251, 0, 64}, data)

	data, err = encodeStackMap([]Frame{{Kind: FrameSameLocals1, Offset: 100, Stack: []VerificationType{{Tag: VTFloat}}}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 247, 0, 100, VTFloat}, data)
}

func TestStackMap_RejectsReservedTypes(t *testing.T) {
	_, err := decodeStackMap([]byte{0, 1, 200})
	require.ErrorIs(t, err, ErrBadFrame)

	_, err = decodeStackMap([]byte{0, 1, 64})
	require.ErrorIs(t, err, ErrBadFrame, "missing stack item")
}

func TestRecomputeFrames_RelocatesUninitialized(t *testing.T) {
	//	0: new #1
	//	3: dup
	//	4: iload_0
	//	5: ifeq +4 (-> 9)
	//	8: return
	//	9: (frame: stack = [uninitialized(0), uninitialized(0)]) athrow
	code := NewCode(3, 1, []byte{OpNew, 0, 1, OpDup, opIload0, OpIfeq, 0, 4, OpReturn, OpAthrow})
	c, _ := newSplicedClass(t, code)
	uninit := VerificationType{Tag: VTUninitialized, Index: 0}
	require.NoError(t, c.SetFrames(code, []Frame{{
		Kind:   FrameFull,
		Offset: 9,
		Locals: []VerificationType{{Tag: VTInteger}},
		Stack:  []VerificationType{uninit, uninit},
	}}))

	_, err := code.InsertBeforeReturns([]byte{opNop, opNop, opNop}, 1)
	require.NoError(t, err)
	require.NoError(t, code.RecomputeFrames())

	frames, err := code.Frames()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 12, frames[0].Offset)
	assert.Equal(t, uint16(0), frames[0].Stack[0].Index, "new at offset 0 does not move")
	assert.Equal(t, uint16(4), code.MaxStack)
}
