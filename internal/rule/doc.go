// Package rule defines the normalized description of one registration scheme:
// which classes to look for (an interface or a set of superclasses, narrowed
// by include/exclude substring filters) and where to inject the calls that
// register them (an initializer method of a target class).
//
// All class names inside a normalized Rule use the JVM internal form with
// slash separators ("com/app/Plugin"); dotted names from configuration are
// converted by Normalize.
package rule
