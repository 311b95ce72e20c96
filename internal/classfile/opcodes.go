package classfile

import (
	"encoding/binary"
	"fmt"
)

// Opcodes referenced by name.
const (
	OpAload0          = 0x2a
	OpDup             = 0x59
	OpIfeq            = 0x99
	OpGoto            = 0xa7
	OpJsr             = 0xa8
	OpTableswitch     = 0xaa
	OpLookupswitch    = 0xab
	OpIreturn         = 0xac
	OpLreturn         = 0xad
	OpFreturn         = 0xae
	OpDreturn         = 0xaf
	OpAreturn         = 0xb0
	OpReturn          = 0xb1
	OpInvokevirtual   = 0xb6
	OpInvokespecial   = 0xb7
	OpInvokestatic    = 0xb8
	OpInvokeinterface = 0xb9
	OpNew             = 0xbb
	OpAthrow          = 0xbf
	OpWide            = 0xc4
	OpIfnull          = 0xc6
	OpIfnonnull       = 0xc7
	OpGotoW           = 0xc8
	OpJsrW            = 0xc9
	OpIinc            = 0x84
)

// opLength holds the fixed length of every opcode including the opcode byte.
// Zero marks variable-length (switches, wide) or undefined opcodes.
var opLength [256]uint8

func init() {
	set := func(from, to int, n uint8) {
		for op := from; op <= to; op++ {
			opLength[op] = n
		}
	}
	set(0x00, 0x0f, 1) // nop .. dconst_1
	opLength[0x10] = 2 // bipush
	opLength[0x11] = 3 // sipush
	opLength[0x12] = 2 // ldc
	set(0x13, 0x14, 3) // ldc_w, ldc2_w
	set(0x15, 0x19, 2) // iload .. aload
	set(0x1a, 0x35, 1) // iload_0 .. saload
	set(0x36, 0x3a, 2) // istore .. astore
	set(0x3b, 0x83, 1) // istore_0 .. lxor
	opLength[OpIinc] = 3
	set(0x85, 0x98, 1) // conversions, comparisons
	set(0x99, 0xa8, 3) // if<cond>, if_icmp, if_acmp, goto, jsr
	opLength[0xa9] = 2 // ret
	set(0xac, 0xb1, 1) // returns
	set(0xb2, 0xb8, 3) // field access, invokevirtual/special/static
	set(0xb9, 0xba, 5) // invokeinterface, invokedynamic
	opLength[0xbb] = 3 // new
	opLength[0xbc] = 2 // newarray
	opLength[0xbd] = 3 // anewarray
	set(0xbe, 0xbf, 1) // arraylength, athrow
	set(0xc0, 0xc1, 3) // checkcast, instanceof
	set(0xc2, 0xc3, 1) // monitorenter, monitorexit
	opLength[0xc5] = 4 // multianewarray
	set(0xc6, 0xc7, 3) // ifnull, ifnonnull
	set(0xc8, 0xc9, 5) // goto_w, jsr_w
}

// Instruction is one decoded instruction. Branch and switch targets are
// offsets relative to the instruction's own offset, as in the class file.
type Instruction struct {
	Offset int
	Opcode uint8
	Length int

	// Branch is the relative target of a branch instruction.
	Branch int32
	// Default, Keys and Targets describe tableswitch and lookupswitch.
	// For tableswitch, Keys holds the consecutive low..high values.
	Default int32
	Keys    []int32
	Targets []int32
}

// IsReturn reports whether the instruction exits the method normally.
func (in Instruction) IsReturn() bool {
	return in.Opcode >= OpIreturn && in.Opcode <= OpReturn
}

// IsBranch16 reports a branch with a signed 16-bit offset.
func (in Instruction) IsBranch16() bool {
	return (in.Opcode >= OpIfeq && in.Opcode <= OpJsr) || in.Opcode == OpIfnull || in.Opcode == OpIfnonnull
}

// IsBranch32 reports goto_w and jsr_w.
func (in Instruction) IsBranch32() bool {
	return in.Opcode == OpGotoW || in.Opcode == OpJsrW
}

// IsSwitch reports tableswitch and lookupswitch.
func (in Instruction) IsSwitch() bool {
	return in.Opcode == OpTableswitch || in.Opcode == OpLookupswitch
}

// Decode splits a method body into instructions.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	for pos := 0; pos < len(code); {
		in, err := decodeAt(code, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		pos += in.Length
	}
	return out, nil
}

func decodeAt(code []byte, pos int) (Instruction, error) {
	op := code[pos]
	in := Instruction{Offset: pos, Opcode: op}

	switch {
	case op == OpWide:
		in.Length = 4
		if pos+1 < len(code) && code[pos+1] == OpIinc {
			in.Length = 6
		}
	case op == OpTableswitch || op == OpLookupswitch:
		return decodeSwitch(code, in)
	default:
		in.Length = int(opLength[op])
		if in.Length == 0 {
			return in, fmt.Errorf("%w: undefined opcode %#x at %d", ErrBadBytecode, op, pos)
		}
	}

	if pos+in.Length > len(code) {
		return in, fmt.Errorf("%w: opcode %#x at %d runs past end of code", ErrBadBytecode, op, pos)
	}
	switch {
	case in.IsBranch16():
		in.Branch = int32(int16(binary.BigEndian.Uint16(code[pos+1:])))
	case in.IsBranch32():
		in.Branch = int32(binary.BigEndian.Uint32(code[pos+1:]))
	}
	return in, nil
}

// switchPadding is the number of zero bytes after a switch opcode at offset
// pos so that its operands start on a four-byte boundary.
func switchPadding(pos int) int {
	return (4 - (pos+1)%4) % 4
}

func decodeSwitch(code []byte, in Instruction) (Instruction, error) {
	p := in.Offset + 1 + switchPadding(in.Offset)
	s4 := func() (int32, bool) {
		if p+4 > len(code) {
			return 0, false
		}
		v := int32(binary.BigEndian.Uint32(code[p:]))
		p += 4
		return v, true
	}
	truncated := fmt.Errorf("%w: switch at %d runs past end of code", ErrBadBytecode, in.Offset)

	var ok bool
	if in.Default, ok = s4(); !ok {
		return in, truncated
	}
	if in.Opcode == OpTableswitch {
		low, ok1 := s4()
		high, ok2 := s4()
		if !ok1 || !ok2 || high < low || int64(high)-int64(low) >= int64(len(code)) {
			return in, fmt.Errorf("%w: tableswitch at %d has bad bounds", ErrBadBytecode, in.Offset)
		}
		for k := int64(low); k <= int64(high); k++ {
			t, ok := s4()
			if !ok {
				return in, truncated
			}
			in.Keys = append(in.Keys, int32(k))
			in.Targets = append(in.Targets, t)
		}
	} else {
		n, ok := s4()
		if !ok || n < 0 || int(n) > len(code)/8 {
			return in, fmt.Errorf("%w: lookupswitch at %d has bad pair count", ErrBadBytecode, in.Offset)
		}
		for i := int32(0); i < n; i++ {
			key, ok1 := s4()
			t, ok2 := s4()
			if !ok1 || !ok2 {
				return in, truncated
			}
			in.Keys = append(in.Keys, key)
			in.Targets = append(in.Targets, t)
		}
	}
	in.Length = p - in.Offset
	return in, nil
}

// switchLength is the encoded length of a switch placed at offset pos.
func (in Instruction) switchLength(pos int) int {
	n := 1 + switchPadding(pos) + 4
	if in.Opcode == OpTableswitch {
		return n + 8 + 4*len(in.Targets)
	}
	return n + 4 + 8*len(in.Targets)
}

// lengthAt is the encoded length of the instruction when placed at pos.
func (in Instruction) lengthAt(pos int) int {
	if in.IsSwitch() {
		return in.switchLength(pos)
	}
	return in.Length
}
