// Package classfile reads, edits and writes JVM class files.
//
// It decodes exactly as much structure as registration-call injection needs:
// the constant pool, the class header (name, superclass, interfaces, access
// flags), every method with its Code attribute, and the offset-carrying
// attributes nested in Code (exception table, line and local variable tables,
// StackMapTable). Fields and unrelated attributes are carried through as raw
// bytes, so a class that is parsed and encoded without edits round-trips
// byte for byte.
//
// Editing a method body is a two-step affair. InsertBeforeReturns splices
// instructions and relocates every offset; it leaves the method's stack map
// frames stale. RecomputeFrames must then be called on the Code before the
// class can be encoded again; Encode refuses stale methods with ErrFramesStale.
//
// Names from the constant pool are returned as their raw modified-UTF-8 bytes.
// For the class and method names this package deals with, that is identical
// to UTF-8 unless a name contains NUL or characters outside the BMP.
package classfile
