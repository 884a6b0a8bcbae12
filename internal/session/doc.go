// Package session owns the client-side session state machine. It is the
// only writer of session state: the boot check, login, logout, and the
// renewal-invalidated signal all funnel through the Manager, and everyone
// else observes snapshots through subscriptions.
package session
