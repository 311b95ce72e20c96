package classfile

import "errors"

var (
	// ErrBadMagic is returned when the input does not start with 0xCAFEBABE.
	ErrBadMagic = errors.New("classfile: bad magic number")
	// ErrTruncated is returned when the input ends inside a structure.
	ErrTruncated = errors.New("classfile: truncated input")
	// ErrBadConstant is returned for unknown constant tags or indices that
	// point at the wrong kind of constant.
	ErrBadConstant = errors.New("classfile: invalid constant pool reference")
	// ErrBadBytecode is returned for unknown opcodes or branches into the
	// middle of an instruction.
	ErrBadBytecode = errors.New("classfile: invalid bytecode")
	// ErrBadFrame is returned for malformed StackMapTable entries.
	ErrBadFrame = errors.New("classfile: invalid stack map frame")
	// ErrBranchOverflow is returned when a relocated 16-bit branch no longer fits.
	ErrBranchOverflow = errors.New("classfile: branch offset overflow")
	// ErrCodeTooLarge is returned when a method body would exceed 65535 bytes.
	ErrCodeTooLarge = errors.New("classfile: method code too large")
	// ErrPoolOverflow is returned when the constant pool would exceed 65535 slots.
	ErrPoolOverflow = errors.New("classfile: constant pool overflow")
	// ErrFramesStale is returned by Encode when a spliced method has not had
	// its frames recomputed.
	ErrFramesStale = errors.New("classfile: stack map frames not recomputed")
)
