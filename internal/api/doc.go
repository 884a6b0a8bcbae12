// Package api is the console's client for the user-management backend.
//
// The Gateway performs every authenticated call: it attaches the stored
// access token, and on a 401 renews the credential pair once and replays the
// request exactly once. The Renewer implements the shared renewal procedure
// (also used at boot) with a single de-duplicated in-flight exchange.
// AuthClient, UsersClient and StatsClient are thin typed wrappers over the
// Gateway for the backend's endpoints.
package api
