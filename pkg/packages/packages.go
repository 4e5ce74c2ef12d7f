// Package packages enumerates the packages to scan, either from the local
// dpkg status database or from a cloud-image manifest file. Both paths
// produce the same Package set; downstream code never cares which one a
// package came from beyond labelling.
package packages

// Source records where a package list was read from.
type Source int

const (
	System Source = iota
	Manifest
)

func (s Source) String() string {
	if s == Manifest {
		return "manifest"
	}
	return "system"
}

// Package is one installed package. Immutable once constructed; one
// instance per distinct name.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Arch    string `json:"architecture,omitempty"`
	Source  Source `json:"-"`
}
