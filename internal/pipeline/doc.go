// Package pipeline runs one class file through an explicit list of stages.
//
// Stages come in two kinds, distinguished by what they are handed. A
// HeaderStage sees only the decoded class header and cannot change anything.
// A MethodStage is handed a MethodEdit for a single method: the method's
// identity, its mutable Code, and a way to add constants, nothing more.
//
// After the method stages ran, every method body they changed has its stack
// map frames recomputed before the class is encoded. That step is part of
// Transform and cannot be skipped.
package pipeline
