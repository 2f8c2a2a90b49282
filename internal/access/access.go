// Package access is the role gate in front of every protected view and API
// route. Decisions are stateless: each call only looks at its arguments.
package access

import (
	"strings"

	"cleantrack/backend/internal/models"
)

const (
	LoginPath        = "/login"
	CitizenHomePath  = "/user/dashboard"
	OfficialHomePath = "/official/dashboard"
)

// Decision is Allow, or a redirect to Redirect.
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

func allow() Decision                 { return Decision{Allow: true} }
func redirect(target string) Decision { return Decision{Redirect: target} }

func (d Decision) IsRedirect() bool { return !d.Allow && d.Redirect != "" }

func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	return "redirect " + d.Redirect
}

// HomeFor is the landing view of a role.
func HomeFor(role models.Role) string {
	if role == models.RoleOfficial {
		return OfficialHomePath
	}
	return CitizenHomePath
}

// Authorize gates a view that requires the given role. Anonymous callers go
// to the login view; callers with another role go to their own home.
func Authorize(id *models.Identity, required models.Role) Decision {
	if id == nil {
		return redirect(LoginPath)
	}
	if required != "" && id.Role != required {
		return redirect(HomeFor(id.Role))
	}
	return allow()
}

// Route is a named view of the front end.
type Route struct {
	Name string      `json:"name"`
	Path string      `json:"path"`
	Role models.Role `json:"role,omitempty"`
	// Public routes are reachable without a session.
	Public bool `json:"public"`
	// RedirectTo makes the route an alias.
	RedirectTo string `json:"redirectTo,omitempty"`
}

// NotFound is the catch-all route.
var NotFound = Route{Name: "not-found", Path: "*", Public: true}

// Routes is the routing surface in declaration order.
var Routes = []Route{
	{Name: "root", Path: "/", Public: true, RedirectTo: LoginPath},
	{Name: "login", Path: LoginPath, Public: true},
	{Name: "register", Path: "/register", Public: true},

	{Name: "user-dashboard", Path: CitizenHomePath, Role: models.RoleCitizen},
	{Name: "user-profile", Path: "/user/profile", Role: models.RoleCitizen},
	{Name: "user-about", Path: "/user/about", Role: models.RoleCitizen},
	{Name: "user-give-complaint", Path: "/user/give-complaint", Role: models.RoleCitizen},
	{Name: "user-track-complaints", Path: "/user/track-complaints", Role: models.RoleCitizen},
	{Name: "user-rewards", Path: "/user/rewards", Role: models.RoleCitizen},

	{Name: "official-dashboard", Path: OfficialHomePath, Role: models.RoleOfficial},
	{Name: "official-view-complaints", Path: "/official/view-complaints", Role: models.RoleOfficial},
	{Name: "official-update-complaint", Path: "/official/update-complaint/:id", Role: models.RoleOfficial},
	{Name: "official-profile", Path: "/official/profile", Role: models.RoleOfficial},

	NotFound,
}

// Resolve matches a path against Routes. ":name" segments capture one path
// segment each. Unknown paths resolve to NotFound.
func Resolve(path string) (Route, map[string]string) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	for _, r := range Routes {
		if r.Path == NotFound.Path {
			continue
		}
		if params, ok := match(r.Path, path); ok {
			return r, params
		}
	}
	return NotFound, nil
}

func match(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range ps {
		if strings.HasPrefix(seg, ":") {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

// Check resolves the path and evaluates the gate for it.
func Check(id *models.Identity, path string) (Route, Decision) {
	r, _ := Resolve(path)
	switch {
	case r.RedirectTo != "":
		return r, redirect(r.RedirectTo)
	case r.Public:
		return r, allow()
	}
	return r, Authorize(id, r.Role)
}
