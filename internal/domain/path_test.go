package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath_LevelOutOfRange(t *testing.T) {
	p := NewPath("", "dashboard", "posts")

	assert.Equal(t, "dashboard", p.Level(0))
	assert.Equal(t, "posts", p.Level(1))
	assert.Equal(t, "", p.Level(2))
	assert.Equal(t, "", p.Level(-1))
}

func TestPath_EmptyPath(t *testing.T) {
	var p Path

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "", p.Level(0))
	assert.Equal(t, "/", p.String())
}

func TestPath_URL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		segments []string
		want     string
	}{
		{"root without base", "", nil, "/"},
		{"root with base", "/planner", nil, "/planner/"},
		{"nested", "", []string{"dashboard", "settings"}, "/dashboard/settings"},
		{"nested with base", "/planner", []string{"login"}, "/planner/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath(tt.base)
			assert.Equal(t, tt.want, p.URL(tt.segments...))
		})
	}
}

func TestPath_SegmentsAreCopied(t *testing.T) {
	in := []string{"a", "b"}
	p := NewPath("", in...)
	in[0] = "changed"

	out := p.Segments()
	out[1] = "changed"

	assert.Equal(t, []string{"a", "b"}, p.Segments())
}
