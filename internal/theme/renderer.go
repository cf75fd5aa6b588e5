package theme

import (
	"bytes"
	"context"
	"maps"

	"github.com/pscheid92/instaplanner/internal/app"
)

// PageRenderer renders themed pages to the instance's response. It is the
// loader's renderer for routes without a full model, and full models print
// through it with their extra values.
type PageRenderer struct {
	theme *Theme
}

var _ app.Renderer = (*PageRenderer)(nil)

func NewPageRenderer(theme *Theme) *PageRenderer {
	return &PageRenderer{theme: theme}
}

func (r *PageRenderer) Render(ctx context.Context, inst *app.Instance, route, display, version string) error {
	return r.Print(ctx, inst, route, display, version, nil)
}

// Print renders route with extra merged into PageData.Extra.
func (r *PageRenderer) Print(ctx context.Context, inst *app.Instance, route, display, version string, extra map[string]any) error {
	data, err := BuildPageData(ctx, inst, route, display, version)
	if err != nil {
		return err
	}
	data.Theme = r.theme.Manifest
	maps.Copy(data.Extra, extra)

	return r.write(inst, route, data)
}

func (r *PageRenderer) write(inst *app.Instance, route string, data PageData) error {
	var buf bytes.Buffer
	if err := r.theme.Render(&buf, route, data); err != nil {
		return err
	}

	w := inst.Response
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(data.Status)
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *PageRenderer) Theme() *Theme {
	return r.theme
}
