package domain

import "context"

// Option keys read by the dispatcher, the sub-router and the theme.
const (
	OptionDashboard       = "dashboard"
	OptionLogin           = "login"
	OptionSiteName        = "site_name"
	OptionSiteDescription = "site_description"
	OptionDefaultRole     = "default_role"
)

const (
	DefaultDashboardRoute  = "dashboard"
	DefaultLoginRoute      = "login"
	DefaultSiteName        = "InstaPlanner"
	DefaultSiteDescription = "Schedule your Instagram posts"
)

// Options resolves named options, falling back to the supplied default when
// there is no connection or the key is not stored.
type Options interface {
	Get(ctx context.Context, key, def string) (string, error)
}

type OptionsFactory interface {
	// New binds an options reader to conn, which may be nil.
	New(conn Connection) Options
}

type OptionRepository interface {
	// Get returns ErrOptionNotFound when the key is not stored.
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
}
