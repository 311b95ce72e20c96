// Package engine drives a build: it takes the normalized rules, resets their
// registry entries, and moves every offered unit through the scan and
// injection passes.
//
// A build runs in one of two modes. Barrier, the default, scans every
// offered unit before any injection happens, so each injection target sees
// the complete match list; scanning follows source order, so registration
// order is reproducible, and only injection is spread over workers. Streaming processes each unit once, scanning and
// injecting in the same visit; an injection target visited before some of
// its implementations only registers the classes seen so far.
package engine
