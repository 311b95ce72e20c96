// Package archive reads and writes the sets of binary units the engine
// visits: a directory tree of class files or a jar. Entries that are not
// class files travel through unchanged.
package archive
