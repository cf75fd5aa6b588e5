// Package models holds the full models: routes that prepare data before
// printing through the theme.
package models

import (
	"context"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/domain"
	"github.com/pscheid92/instaplanner/internal/options"
	perrors "github.com/pscheid92/instaplanner/internal/platform/errors"
)

const (
	RouteHome              = app.HomeRoute
	RouteLogin             = "login"
	RouteDashboard         = "dashboard"
	RouteDashboardSettings = "dashboard-settings"
)

// Printer renders a themed page with model values.
type Printer interface {
	Print(ctx context.Context, inst *app.Instance, route, display, version string, extra map[string]any) error
}

// Register adds every full model to reg.
func Register(reg *app.Registry, printer Printer) {
	reg.RegisterModel(RouteHome, Home{printer: printer})
	reg.RegisterModel(RouteLogin, Login{printer: printer})
	reg.RegisterModel(RouteDashboard, Dashboard{printer: printer})
	reg.RegisterModel(RouteDashboardSettings, Settings{printer: printer})
}

type Home struct {
	printer Printer
}

func (m Home) Render(ctx context.Context, inst *app.Instance, route, display, version string) error {
	return m.printer.Print(ctx, inst, route, display, version, map[string]any{
		"SignedIn": !inst.User.IsAnonymous(),
	})
}

// Login prefills the username after a failed attempt.
type Login struct {
	printer Printer
}

func (m Login) Render(ctx context.Context, inst *app.Instance, route, display, version string) error {
	username := ""
	if inst.Request != nil {
		username = inst.Request.URL.Query().Get("username")
	}
	return m.printer.Print(ctx, inst, route, display, version, map[string]any{
		"Username": username,
	})
}

type Dashboard struct {
	printer Printer
}

func (m Dashboard) Render(ctx context.Context, inst *app.Instance, route, display, version string) error {
	return m.printer.Print(ctx, inst, route, display, version, map[string]any{
		"CanManageSettings": inst.User.Can(domain.PermissionManageSettings),
	})
}

// SettingField is one row of the settings form.
type SettingField struct {
	Key   string
	Label string
	Value string
}

type Settings struct {
	printer Printer
}

func (m Settings) Render(ctx context.Context, inst *app.Instance, route, display, version string) error {
	if !inst.User.Can(domain.PermissionManageSettings) {
		return perrors.ForbiddenError("you may not change settings")
	}

	fields := make([]SettingField, 0, len(options.Editable))
	for _, def := range options.Editable {
		value, err := inst.Option(ctx, def.Key, def.Default)
		if err != nil {
			return err
		}
		fields = append(fields, SettingField{Key: def.Key, Label: def.Label, Value: value})
	}

	return m.printer.Print(ctx, inst, route, display, version, map[string]any{
		"Settings": fields,
	})
}
