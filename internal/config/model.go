package config

// Descriptor keys, as written in rule files.
const (
	KeyScanInterface          = "scanInterface"
	KeyScanSuperClasses       = "scanSuperClasses"
	KeyCodeInsertToClassName  = "codeInsertToClassName"
	KeyCodeInsertToMethodName = "codeInsertToMethodName"
	KeyRegisterClassName      = "registerClassName"
	KeyRegisterMethodName     = "registerMethodName"
	KeyInclude                = "include"
	KeyExclude                = "exclude"
)

// Descriptor is one raw registerInfo entry. Values are strings or lists of
// strings; scanSuperClasses may be either.
type Descriptor map[string]any

// Model is every descriptor read from the configured rule files, in file
// order.
type Model struct {
	Descriptors []Descriptor
}

// Merge appends the descriptors of other.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Descriptors = append(m.Descriptors, other.Descriptors...)
}
