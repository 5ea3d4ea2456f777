package router

// MissingRouteError is the single terminal routing failure: no rule in the
// chain produced a usable provider/model pair, including an empty default
// route. Every other rule failure degrades to fallthrough.
type MissingRouteError struct {
	Model string
}

func (e *MissingRouteError) Error() string {
	if e.Model != "" {
		return "no route available for model " + e.Model
	}
	return "no route available and no default route configured"
}
