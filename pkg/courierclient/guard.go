package courierclient

// Decision is the outcome of a route guard check.
type Decision int

const (
	Loading Decision = iota
	Allow
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// State is the client's view of the session at a point in time.
type State struct {
	Initialized bool
	Token       string
	User        *User
}

// Guard decides whether a route requiring one of requiredRoles may render.
// A token without a confirmed user is let through until the server answers.
func Guard(state State, requiredRoles ...string) Decision {
	if !state.Initialized {
		return Loading
	}
	if state.Token == "" {
		return RedirectLogin
	}
	if state.User == nil {
		return Allow
	}
	if !HasRole(state.User, requiredRoles...) {
		return RedirectUnauthorized
	}
	return Allow
}

// HasRole mirrors the server rule: admins satisfy every role and an empty
// set is satisfied by any user.
func HasRole(u *User, required ...string) bool {
	if u == nil {
		return false
	}
	if len(required) == 0 || u.Role == RoleAdmin {
		return true
	}
	for _, r := range required {
		if u.Role == r {
			return true
		}
	}
	return false
}
