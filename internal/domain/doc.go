// Package domain defines the core domain types shared across the console.
//
// Concept-oriented files (user.go, credentials.go, session.go, errors.go) with
// shared types and cross-cutting contracts. No implementation code here;
// keeping contracts on the consumer side prevents circular imports.
package domain
