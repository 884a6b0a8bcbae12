package domain

// Status describes where the client-side session currently stands. The
// process holds exactly one status at a time; the machine cycles for the
// life of the process.
type Status int

const (
	// StatusUnknown is the initial state before any auth check has run.
	StatusUnknown Status = iota
	// StatusLoading means an auth-affecting operation is in flight.
	StatusLoading
	// StatusAuthenticated means a user snapshot is held and an access
	// credential is assumed valid.
	StatusAuthenticated
	// StatusUnauthenticated means no valid session exists, possibly with a
	// surfaced error.
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}
