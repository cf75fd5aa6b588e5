package domain

import "context"

// ConnectionParams are the persistent-store parameters the installer writes.
type ConnectionParams struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Configured reports whether the required parameters are resolvable. It says
// nothing about whether a connection can actually be opened.
func (p ConnectionParams) Configured() bool {
	return p.Host != "" && p.Name != "" && p.User != ""
}

// Connection is an open persistent store and the repositories bound to it.
type Connection interface {
	Options() OptionRepository
	Users() UserRepository
	Ping(ctx context.Context) error
}

type ConnectionProvider interface {
	Connect(ctx context.Context, params ConnectionParams) (Connection, error)
}
