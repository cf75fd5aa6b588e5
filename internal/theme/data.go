package theme

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/domain"
)

// PageData is what every page template sees.
type PageData struct {
	Route       string
	Display     string
	Version     string
	Status      int
	SiteName    string
	Description string
	Theme       Manifest

	User      *domain.User
	Flashes   []string
	CSRFToken string

	Path          domain.Path
	DashboardPath string
	LoginPath     string

	// Extra carries model specific values.
	Extra map[string]any
}

// URL builds an application URL, e.g. {{ .URL .DashboardPath "settings" }}.
func (d PageData) URL(segments ...string) string {
	return d.Path.URL(segments...)
}

// BuildPageData collects the values every page needs from the instance.
// Pending flashes are drained and the session saved.
func BuildPageData(ctx context.Context, inst *app.Instance, route, display, version string) (PageData, error) {
	data := PageData{
		Route:     route,
		Display:   display,
		Version:   version,
		Status:    http.StatusOK,
		User:      inst.User,
		Path:      inst.Path,
		CSRFToken: app.CSRFToken(ctx),
		Extra:     map[string]any{},
	}
	if route == app.NotFoundRoute {
		data.Status = http.StatusNotFound
	}

	for _, opt := range []struct {
		key, def string
		dst      *string
	}{
		{domain.OptionSiteName, domain.DefaultSiteName, &data.SiteName},
		{domain.OptionSiteDescription, domain.DefaultSiteDescription, &data.Description},
		{domain.OptionDashboard, domain.DefaultDashboardRoute, &data.DashboardPath},
		{domain.OptionLogin, domain.DefaultLoginRoute, &data.LoginPath},
	} {
		v, err := inst.Option(ctx, opt.key, opt.def)
		if err != nil {
			return PageData{}, fmt.Errorf("read option %s: %w", opt.key, err)
		}
		*opt.dst = v
	}

	if inst.Session != nil {
		data.Flashes = inst.Session.Flashes()
		if len(data.Flashes) > 0 {
			if err := inst.Session.Save(); err != nil {
				return PageData{}, err
			}
		}
	}
	return data, nil
}
