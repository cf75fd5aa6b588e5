// Package uri turns request paths into domain.Path values.
package uri

import (
	"strings"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// Resolver strips the mount prefix and splits the rest on "/". Empty
// segments are dropped, so "/a//b/" and "/a/b" are the same path. Segments
// are not case folded.
type Resolver struct {
	base string
}

func NewResolver(basePath string) *Resolver {
	return &Resolver{base: strings.TrimRight(basePath, "/")}
}

func (r *Resolver) Parse(rawPath string) domain.Path {
	rest := rawPath
	if r.base != "" {
		if rest == r.base {
			rest = ""
		} else if strings.HasPrefix(rest, r.base+"/") {
			rest = rest[len(r.base):]
		}
	}

	var segments []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return domain.NewPath(r.base, segments...)
}
