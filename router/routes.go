package router

// Route names of the admin console.
const (
	RouteLogin        = "Login"
	RouteDashboard    = "Dashboard"
	RouteApplications = "Applications"
	RouteVersions     = "VersionManagement"
	RouteChannels     = "ChannelManagement"
	RouteStatistics   = "Statistics"
	RouteDocs         = "APIDocs"
)

// DefaultRoutes returns the admin console route table: a public login route,
// an authenticated layout whose children all need the admin tier, and a
// catch-all back to the dashboard.
func DefaultRoutes() []Route {
	admin := func(path, name, title string) Route {
		return Route{Path: path, Name: name, Meta: Meta{Title: title, Permission: "admin"}}
	}
	return []Route{
		{Path: LoginPath, Name: RouteLogin, Meta: Meta{Title: "Login"}},
		{
			Path:     LandingPath,
			Redirect: "/dashboard",
			Meta:     Meta{RequiresAuth: true},
			Children: []Route{
				admin("dashboard", RouteDashboard, "Dashboard"),
				admin("applications", RouteApplications, "Applications"),
				admin("versions", RouteVersions, "Versions"),
				admin("channels", RouteChannels, "Channels"),
				admin("statistics", RouteStatistics, "Statistics"),
				admin("docs", RouteDocs, "API Docs"),
			},
		},
		{Path: catchAll, Redirect: "/dashboard"},
	}
}

// DefaultTable is the table built from DefaultRoutes.
func DefaultTable() *Table {
	return MustTable(DefaultRoutes())
}
