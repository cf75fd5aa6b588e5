package domain

import "strings"

// Path is the ordered sequence of slash-delimited request path segments,
// together with the base path the application is mounted under.
type Path struct {
	base     string
	segments []string
}

func NewPath(base string, segments ...string) Path {
	return Path{
		base:     base,
		segments: append([]string(nil), segments...),
	}
}

// Level returns segment i, or "" when i is outside the sequence.
func (p Path) Level(i int) string {
	if i < 0 || i >= len(p.segments) {
		return ""
	}
	return p.segments[i]
}

func (p Path) Len() int {
	return len(p.segments)
}

func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

func (p Path) Base() string {
	return p.base
}

// URL builds an absolute application URL below the base path.
func (p Path) URL(segments ...string) string {
	return p.base + "/" + strings.Join(segments, "/")
}

func (p Path) String() string {
	return p.URL(p.segments...)
}

type PathResolver interface {
	Parse(rawPath string) Path
}
