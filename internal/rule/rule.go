package rule

import (
	"strings"

	"github.com/google/uuid"
)

// StaticInitializer is the JVM name of a class's static initializer, used
// when a rule does not name an injection method.
const StaticInitializer = "<clinit>"

// namespace scopes rule IDs so they never collide with other name-based UUIDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("autoregister:rule"))

// Rule describes one registration scheme. A Rule is a value: Normalize returns
// a new Rule and nothing mutates a normalized one.
type Rule struct {
	ID                 string
	InterfaceName      string
	SuperClassNames    []string
	InitClassName      string
	InitMethodName     string
	RegisterClassName  string
	RegisterMethodName string
	Include            []string
	Exclude            []string
}

// Normalize converts every name to slash form, fills the defaults for the
// injection method and the register class, and derives the ID.
func (r Rule) Normalize() Rule {
	n := Rule{
		InterfaceName:      toSlash(r.InterfaceName),
		SuperClassNames:    toSlashAll(r.SuperClassNames),
		InitClassName:      toSlash(r.InitClassName),
		InitMethodName:     r.InitMethodName,
		RegisterClassName:  toSlash(r.RegisterClassName),
		RegisterMethodName: r.RegisterMethodName,
		Include:            toSlashAll(r.Include),
		Exclude:            toSlashAll(r.Exclude),
	}
	if n.InitMethodName == "" {
		n.InitMethodName = StaticInitializer
	}
	if n.RegisterClassName == "" {
		n.RegisterClassName = n.InitClassName
	}
	n.ID = ComputeID(n.InterfaceName, n.InitClassName, n.InitMethodName)
	return n
}

// ComputeID derives the stable identity of a rule from its normalized
// interface, injection class and injection method names.
func ComputeID(interfaceName, initClassName, initMethodName string) string {
	key := interfaceName + "|" + initClassName + "|" + initMethodName
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// Validate reports whether the rule names both an interface and an injection
// class. Invalid rules are dropped by their caller, never reported as errors.
func (r Rule) Validate() bool {
	return r.InterfaceName != "" && r.InitClassName != ""
}

// IsExcluded reports whether name contains any exclude filter.
func (r Rule) IsExcluded(name string) bool {
	for _, ex := range r.Exclude {
		if strings.Contains(name, ex) {
			return true
		}
	}
	return false
}

// IsIncluded reports whether name passes the include filters. An empty
// include list matches everything.
func (r Rule) IsIncluded(name string) bool {
	if len(r.Include) == 0 {
		return true
	}
	for _, in := range r.Include {
		if strings.Contains(name, in) {
			return true
		}
	}
	return false
}

// MatchesFilters reports whether name is included and not excluded.
func (r Rule) MatchesFilters(name string) bool {
	return r.IsIncluded(name) && !r.IsExcluded(name)
}

// HasSuperClass reports whether name is one of the rule's superclasses.
func (r Rule) HasSuperClass(name string) bool {
	for _, s := range r.SuperClassNames {
		if s == name {
			return true
		}
	}
	return false
}

// Targets reports whether the given method is this rule's injection point.
func (r Rule) Targets(className, methodName string) bool {
	return className == r.InitClassName && methodName == r.InitMethodName
}

// RegisterDescriptor is the JVM method descriptor of the registration call:
// one argument of the scanned interface type, no result.
func (r Rule) RegisterDescriptor() string {
	return "(L" + r.InterfaceName + ";)V"
}

func toSlash(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}

func toSlashAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, toSlash(s))
	}
	return out
}
