package options

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// Definition describes an option that can be edited from the dashboard.
type Definition struct {
	Key      string
	Label    string
	Default  string
	Validate func(value string) error
}

var routeName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

func validRoute(value string) error {
	if !routeName.MatchString(value) {
		return fmt.Errorf("must be 1-32 lowercase letters, digits, '-' or '_'")
	}
	return nil
}

func maxLength(n int) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("must not be empty")
		}
		if utf8.RuneCountInString(value) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	}
}

// Editable lists the options the settings page exposes, in display order.
var Editable = []Definition{
	{Key: domain.OptionSiteName, Label: "Site name", Default: domain.DefaultSiteName, Validate: maxLength(80)},
	{Key: domain.OptionSiteDescription, Label: "Site description", Default: domain.DefaultSiteDescription, Validate: maxLength(200)},
	{Key: domain.OptionDashboard, Label: "Dashboard path", Default: domain.DefaultDashboardRoute, Validate: validRoute},
	{Key: domain.OptionLogin, Label: "Sign-in path", Default: domain.DefaultLoginRoute, Validate: validRoute},
}

// ValidateChanges checks a full set of submitted values. The dashboard and
// sign-in paths must differ.
func ValidateChanges(values map[string]string) error {
	for _, def := range Editable {
		v, ok := values[def.Key]
		if !ok {
			return fmt.Errorf("%s is missing", def.Label)
		}
		if err := def.Validate(v); err != nil {
			return fmt.Errorf("%s %w", def.Label, err)
		}
	}
	if values[domain.OptionDashboard] == values[domain.OptionLogin] {
		return fmt.Errorf("dashboard path and sign-in path must differ")
	}
	return nil
}
