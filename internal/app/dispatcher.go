package app

const (
	// HomeRoute is the model loaded for the root path.
	HomeRoute = "home"
	// NotFoundRoute is the model loaded when no route matches.
	NotFoundRoute = "404"
	// InstallRoute is the model served while no database is configured.
	InstallRoute = "install"
	// InstallDisplay is the display name passed to the installer model.
	InstallDisplay = "Installer"
)

// Outcome is the closed set of dispatch results: Install, SubRoute or
// LoadModel. The unexported method keeps other packages from adding cases.
type Outcome interface {
	Kind() string
	outcome()
}

// Install hands the request to the installer model.
type Install struct{}

// SubRoute hands the request to the authenticated-area router.
type SubRoute struct{}

// LoadModel loads the model registered for Name with the given display name.
type LoadModel struct {
	Name    string
	Display string
}

func (Install) Kind() string   { return "install" }
func (SubRoute) Kind() string  { return "sub_route" }
func (LoadModel) Kind() string { return "load_model" }

func (Install) outcome()   {}
func (SubRoute) outcome()  {}
func (LoadModel) outcome() {}

// DispatchInput holds everything Decide looks at.
type DispatchInput struct {
	Configured     bool
	Segment        string
	DashboardRoute string
	LoginRoute     string
	Description    string
}

// Decide maps the first path segment to an outcome. Only segment 0
// participates, and it is compared exactly: no case folding, no trimming.
func Decide(in DispatchInput) Outcome {
	if !in.Configured {
		return Install{}
	}

	switch in.Segment {
	case in.DashboardRoute, in.LoginRoute:
		return SubRoute{}
	case "":
		return LoadModel{Name: HomeRoute, Display: in.Description}
	default:
		return LoadModel{Name: NotFoundRoute, Display: in.Description}
	}
}
