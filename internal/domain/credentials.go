package domain

// Credentials is the token pair issued by the backend at login. The access
// token is short-lived and sent on every call; the refresh token is
// long-lived and sent only to the renewal endpoint. Both are opaque: the
// console never inspects their content, and expiry is discovered reactively
// through a 401 rather than tracked up front.
//
// The credential store exclusively owns the durable copy. No other component
// retains tokens beyond a single operation's stack frame.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether neither token is held.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}
