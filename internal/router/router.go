// Package router handles the login and dashboard areas the dispatcher hands
// off to.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pscheid92/instaplanner/internal/app"
	"github.com/pscheid92/instaplanner/internal/auth"
	"github.com/pscheid92/instaplanner/internal/domain"
	"github.com/pscheid92/instaplanner/internal/options"
	perrors "github.com/pscheid92/instaplanner/internal/platform/errors"
)

const (
	flashInvalidLogin   = "Invalid username or password"
	flashSignedOut      = "You have been signed out"
	flashSettingsSaved  = "Settings saved"
	dashboardPagePrefix = "dashboard-"
)

// Loader renders a route through the full model or themed page tiers.
type Loader interface {
	Load(ctx context.Context, inst *app.Instance, route, display string) (app.Tier, error)
}

// OptionWriter is implemented by option stores that can persist changes.
type OptionWriter interface {
	Set(ctx context.Context, key, value string) error
}

type Router struct {
	loader Loader
}

func New(loader Loader) *Router {
	return &Router{loader: loader}
}

type routes struct {
	login     string
	dashboard string
}

// Handle serves inst's request when segment 0 names the login or dashboard
// route. Unknown pages end in a *domain.RouteNotFoundError.
func (rt *Router) Handle(ctx context.Context, inst *app.Instance) error {
	names, err := currentRoutes(ctx, inst)
	if err != nil {
		return err
	}

	switch inst.Path.Level(0) {
	case names.login:
		return rt.handleLogin(ctx, inst, names)
	case names.dashboard:
		return rt.handleDashboard(ctx, inst, names)
	default:
		return &domain.RouteNotFoundError{Name: inst.Path.Level(0)}
	}
}

func currentRoutes(ctx context.Context, inst *app.Instance) (routes, error) {
	login, err := inst.Option(ctx, domain.OptionLogin, domain.DefaultLoginRoute)
	if err != nil {
		return routes{}, fmt.Errorf("read option %s: %w", domain.OptionLogin, err)
	}
	dashboard, err := inst.Option(ctx, domain.OptionDashboard, domain.DefaultDashboardRoute)
	if err != nil {
		return routes{}, fmt.Errorf("read option %s: %w", domain.OptionDashboard, err)
	}
	return routes{login: login, dashboard: dashboard}, nil
}

func (rt *Router) handleLogin(ctx context.Context, inst *app.Instance, names routes) error {
	if inst.Path.Len() > 1 {
		return &domain.RouteNotFoundError{Name: names.login + "/" + inst.Path.Level(1)}
	}

	switch inst.Request.Method {
	case http.MethodGet, http.MethodHead:
		if !inst.User.IsAnonymous() {
			return redirect(inst, inst.Path.URL(names.dashboard))
		}
		_, err := rt.loader.Load(ctx, inst, "login", "Sign in")
		return err
	case http.MethodPost:
		return signIn(ctx, inst, names)
	default:
		return methodNotAllowed(inst, http.MethodGet, http.MethodPost)
	}
}

func signIn(ctx context.Context, inst *app.Instance, names routes) error {
	if inst.Conn == nil {
		return perrors.ExternalError("user store unavailable", nil)
	}

	username := inst.Request.PostFormValue("username")
	password := inst.Request.PostFormValue("password")

	user, err := auth.Authenticate(ctx, inst.Conn.Users(), username, password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		slog.InfoContext(ctx, "Sign-in rejected", "username", username)
		inst.Session.AddFlash(flashInvalidLogin)
		if err := inst.Session.Save(); err != nil {
			return err
		}
		return redirect(inst, inst.Path.URL(names.login)+"?"+url.Values{"username": {username}}.Encode())
	}
	if err != nil {
		return perrors.InternalError("sign-in failed", err)
	}

	inst.Session.SetUserID(user.ID)
	if err := inst.Session.Save(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User signed in", "user_id", user.ID)
	return redirect(inst, inst.Path.URL(names.dashboard))
}

func (rt *Router) handleDashboard(ctx context.Context, inst *app.Instance, names routes) error {
	if inst.User.IsAnonymous() {
		return redirect(inst, inst.Path.URL(names.login))
	}
	if inst.Path.Len() > 2 {
		return &domain.RouteNotFoundError{Name: dashboardPagePrefix + inst.Path.Level(1) + "/" + inst.Path.Level(2)}
	}

	page := inst.Path.Level(1)
	switch page {
	case "":
		_, err := rt.loader.Load(ctx, inst, "dashboard", inst.User.Name())
		return err
	case "logout":
		if inst.Request.Method != http.MethodPost {
			return methodNotAllowed(inst, http.MethodPost)
		}
		return signOut(inst)
	case "settings":
		if inst.Request.Method == http.MethodPost {
			return saveSettings(ctx, inst, names)
		}
		_, err := rt.loader.Load(ctx, inst, dashboardPagePrefix+page, "Settings")
		return err
	default:
		_, err := rt.loader.Load(ctx, inst, dashboardPagePrefix+page, inst.User.Name())
		return err
	}
}

func signOut(inst *app.Instance) error {
	inst.Session.Clear()
	inst.Session.AddFlash(flashSignedOut)
	if err := inst.Session.Save(); err != nil {
		return err
	}
	return redirect(inst, inst.Path.URL())
}

func saveSettings(ctx context.Context, inst *app.Instance, names routes) error {
	if !inst.User.Can(domain.PermissionManageSettings) {
		return perrors.ForbiddenError("you may not change settings")
	}
	writer, ok := inst.Options.(OptionWriter)
	if !ok || inst.Conn == nil {
		return perrors.ExternalError("option store unavailable", nil)
	}

	if err := inst.Request.ParseForm(); err != nil {
		return perrors.ValidationError("malformed form")
	}
	values := make(map[string]string, len(options.Editable))
	for _, def := range options.Editable {
		if _, present := inst.Request.PostForm[def.Key]; present {
			values[def.Key] = inst.Request.PostForm.Get(def.Key)
		}
	}

	if err := options.ValidateChanges(values); err != nil {
		inst.Session.AddFlash(err.Error())
		if err := inst.Session.Save(); err != nil {
			return err
		}
		return redirect(inst, inst.Path.URL(names.dashboard, "settings"))
	}

	for _, def := range options.Editable {
		if err := writer.Set(ctx, def.Key, values[def.Key]); err != nil {
			return perrors.InternalError("save settings", err).WithContext("option", def.Key)
		}
	}
	slog.InfoContext(ctx, "Settings saved", "user_id", inst.User.ID)

	inst.Session.AddFlash(flashSettingsSaved)
	if err := inst.Session.Save(); err != nil {
		return err
	}
	return redirect(inst, inst.Path.URL(values[domain.OptionDashboard], "settings"))
}

func redirect(inst *app.Instance, location string) error {
	http.Redirect(inst.Response, inst.Request, location, http.StatusSeeOther)
	return nil
}

func methodNotAllowed(inst *app.Instance, allowed ...string) error {
	for _, m := range allowed {
		inst.Response.Header().Add("Allow", m)
	}
	http.Error(inst.Response, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return nil
}
