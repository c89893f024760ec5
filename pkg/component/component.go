package component

import (
	"strings"
)

// Latest is the version sentinel that resolves to the most recent valid
// upstream tag at the point of use.
const Latest Version = "latest"

// Version is a user-facing revision label. It is opaque except for the
// Latest sentinel.
type Version string

func (v Version) IsLatest() bool {
	return v == Latest
}

func (v Version) String() string {
	return string(v)
}

// Request is a component name plus the version requested for it.
type Request struct {
	Name    string
	Version Version
}

// ParseRequest splits raw ("name" or "name@version") on its first '@'.
// When no version suffix is present, defaultVersion is used, and when that
// is empty too the request resolves to Latest.
func ParseRequest(raw string, defaultVersion Version) Request {
	name, version, _ := strings.Cut(raw, "@")
	v := Version(version)
	if v == "" {
		v = defaultVersion
	}
	if v == "" {
		v = Latest
	}
	return Request{Name: name, Version: v}
}

func (r Request) String() string {
	return r.Name + "@" + string(r.Version)
}

// Info is the resolved unit of work for one requested component.
type Info struct {
	Component string
	// Files holds the upstream paths matched for Tag, in pattern order.
	Files   []string
	Tag     string
	Version Version
}

// BaseName returns the last slash-separated segment of an upstream path.
func BaseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
