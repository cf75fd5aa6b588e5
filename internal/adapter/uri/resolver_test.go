package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_Parse(t *testing.T) {
	tests := []struct {
		name string
		base string
		raw  string
		want []string
	}{
		{"root", "", "/", []string{}},
		{"empty", "", "", []string{}},
		{"single", "", "/dashboard", []string{"dashboard"}},
		{"nested", "", "/dashboard/settings", []string{"dashboard", "settings"}},
		{"trailing slash", "", "/dashboard/", []string{"dashboard"}},
		{"double slash", "", "//a//b", []string{"a", "b"}},
		{"case preserved", "", "/Dashboard", []string{"Dashboard"}},
		{"base stripped", "/planner", "/planner/login", []string{"login"}},
		{"base only", "/planner", "/planner", []string{}},
		{"base with slash", "/planner/", "/planner/", []string{}},
		{"base prefix is not a segment", "/planner", "/plannerx/login", []string{"plannerx", "login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewResolver(tt.base).Parse(tt.raw)
			assert.Equal(t, len(tt.want), p.Len())
			for i, seg := range tt.want {
				assert.Equal(t, seg, p.Level(i))
			}
			assert.Equal(t, "", p.Level(len(tt.want)))
		})
	}
}

func TestResolver_URLsKeepBase(t *testing.T) {
	p := NewResolver("/planner").Parse("/planner/dashboard")
	assert.Equal(t, "/planner/login", p.URL("login"))
	assert.Equal(t, "/planner/dashboard", p.String())
}
