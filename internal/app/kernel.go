package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// Collaborators are the subsystems Bootstrap constructs the instance from.
type Collaborators struct {
	Paths       domain.PathResolver
	Sessions    domain.SessionManager
	Connections domain.ConnectionProvider
	Options     domain.OptionsFactory
	Users       UserResolver
}

// ParamsFunc resolves the current connection parameters. It is called once
// per request so parameters written by an installer take effect without a
// restart.
type ParamsFunc func() (domain.ConnectionParams, error)

// Observer is notified of dispatch outcomes and terminal states.
type Observer interface {
	ObserveOutcome(outcome Outcome)
	ObserveTerminal(state State)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(Outcome) {}
func (nopObserver) ObserveTerminal(State)  {}

// Kernel runs the bootstrap and dispatch sequence for one request at a time.
// It holds no per-request state, so a single Kernel serves all requests.
type Kernel struct {
	collab   Collaborators
	params   ParamsFunc
	loader   *ModelLoader
	router   SubRouter
	observer Observer
}

// KernelOption configures a Kernel.
type KernelOption func(*Kernel)

// WithObserver sets the observer notified of outcomes and terminal states.
func WithObserver(o Observer) KernelOption {
	return func(k *Kernel) { k.observer = o }
}

// NewKernel wires the collaborators into a Kernel. params is consulted on
// every request.
func NewKernel(collab Collaborators, params ParamsFunc, loader *ModelLoader, router SubRouter, opts ...KernelOption) *Kernel {
	k := &Kernel{
		collab:   collab,
		params:   params,
		loader:   loader,
		router:   router,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Bootstrap builds the request's Instance. The order is fixed: path, session,
// connection, options, user. Options always see the connection result and
// the user resolver always sees a fully populated instance.
//
// An unreachable store is not an error. The connection stays nil and the
// instance still counts as configured.
func (k *Kernel) Bootstrap(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Instance, error) {
	inst := &Instance{Request: r, Response: w}

	inst.Path = k.collab.Paths.Parse(r.URL.Path)

	sess, err := k.collab.Sessions.Open(ctx, w, r)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	inst.Session = sess

	params, err := k.params()
	if err != nil {
		return nil, fmt.Errorf("resolve connection params: %w", err)
	}
	inst.Configured = params.Configured()
	if inst.Configured {
		conn, err := k.collab.Connections.Connect(ctx, params)
		if err != nil {
			slog.WarnContext(ctx, "Connection attempt failed, continuing without store", "host", params.Host, "database", params.Name, "error", err)
		} else {
			inst.Conn = conn
		}
	}

	inst.Options = k.collab.Options.New(inst.Conn)

	user, err := k.collab.Users.Resolve(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	inst.User = user

	slog.DebugContext(ctx, "Instance bootstrapped", "path", inst.Path.String(), "configured", inst.Configured, "connected", inst.Conn != nil)
	return inst, nil
}

// Result describes how a request ended.
type Result struct {
	State   State
	Outcome Outcome
	Tier    Tier
}

// Serve bootstraps an instance for r, dispatches it and performs the single
// terminal action. A *domain.RouteNotFoundError is returned when the chosen
// route has neither a model nor a themed page.
func (k *Kernel) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) (Result, error) {
	inst, err := k.Bootstrap(ctx, w, r)
	if err != nil {
		return Result{State: StateUninitialized}, err
	}
	return k.Dispatch(ctx, inst)
}

// Dispatch decides the outcome for an already bootstrapped instance and
// carries it out.
func (k *Kernel) Dispatch(ctx context.Context, inst *Instance) (Result, error) {
	var lc lifecycle

	input, err := k.dispatchInput(ctx, inst)
	if err != nil {
		return Result{State: lc.state}, err
	}

	outcome := Decide(input)
	if err := lc.advance(StateDispatched); err != nil {
		return Result{State: lc.state}, err
	}
	k.observer.ObserveOutcome(outcome)

	res := Result{Outcome: outcome}
	switch o := outcome.(type) {
	case Install:
		res.Tier, err = k.loader.Load(ctx, inst, InstallRoute, InstallDisplay)
		err = k.finish(&lc, err, StateTerminatedInstaller)
	case SubRoute:
		err = k.router.Handle(ctx, inst)
		if err == nil || isRouteNotFound(err) {
			err = k.finish(&lc, err, StateTerminatedSubRouted)
		}
	case LoadModel:
		res.Tier, err = k.loader.Load(ctx, inst, o.Name, o.Display)
		err = k.finishModel(&lc, err)
	default:
		err = fmt.Errorf("unhandled dispatch outcome %T", outcome)
	}

	res.State = lc.state
	if res.State.IsTerminal() {
		k.observer.ObserveTerminal(res.State)
	}
	slog.DebugContext(ctx, "Request dispatched", "outcome", outcome.Kind(), "state", res.State.String(), "tier", res.Tier.String())
	return res, err
}

func (k *Kernel) dispatchInput(ctx context.Context, inst *Instance) (DispatchInput, error) {
	input := DispatchInput{
		Configured: inst.Configured,
		Segment:    inst.Path.Level(0),
	}
	if !input.Configured {
		return input, nil
	}

	var err error
	if input.DashboardRoute, err = inst.Option(ctx, domain.OptionDashboard, domain.DefaultDashboardRoute); err != nil {
		return input, fmt.Errorf("read option %s: %w", domain.OptionDashboard, err)
	}
	if input.LoginRoute, err = inst.Option(ctx, domain.OptionLogin, domain.DefaultLoginRoute); err != nil {
		return input, fmt.Errorf("read option %s: %w", domain.OptionLogin, err)
	}
	if input.Description, err = inst.Option(ctx, domain.OptionSiteDescription, domain.DefaultSiteDescription); err != nil {
		return input, fmt.Errorf("read option %s: %w", domain.OptionSiteDescription, err)
	}
	return input, nil
}

// finish moves to done unless err is a route miss, which ends the request as
// not found. Any other error leaves the state where it is.
func (k *Kernel) finish(lc *lifecycle, err error, done State) error {
	switch {
	case err == nil:
		return lc.advance(done)
	case isRouteNotFound(err):
		if advErr := lc.advance(StateTerminatedNotFound); advErr != nil {
			return advErr
		}
		return err
	default:
		return err
	}
}

func (k *Kernel) finishModel(lc *lifecycle, err error) error {
	if isRouteNotFound(err) {
		return k.finish(lc, err, StateRendered)
	}
	if advErr := lc.advance(StateResolved); advErr != nil {
		return advErr
	}
	if err != nil {
		return err
	}
	return lc.advance(StateRendered)
}

func isRouteNotFound(err error) bool {
	var notFound *domain.RouteNotFoundError
	return errors.As(err, &notFound)
}
