// Package registry holds the build-scoped results of the scan pass.
//
// A Registry maps a rule ID to the ordered set of class names that matched
// the rule so far. It is shared by every scan and injection pass of one build
// invocation and is safe for concurrent use: recording a match is atomic per
// (rule, class) pair, and snapshots are copies that later writes never touch.
//
// A Registry is owned explicitly by the engine that created it. Its lifetime
// spans successive build invocations; Reset is how a new invocation discards
// what the previous one discovered for its active rules.
package registry
