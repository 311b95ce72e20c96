// Package config defines the format-agnostic rule configuration: the raw
// registration descriptors read from rule files, the Loader interface
// implemented per file format, and Convert, which turns descriptors into
// normalized rules.
//
// Concrete loaders live in separate packages (hcl, yamlconfig); a
// MultiLoader picks one per file by extension.
package config
