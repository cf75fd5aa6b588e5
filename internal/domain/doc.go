// Package domain defines the core domain types and the contracts of the
// request collaborators.
//
// Concept-oriented files (path.go, session.go, connection.go, options.go,
// user.go, errors.go) hold shared types and the interfaces implemented by the
// adapters. No implementation code beyond small value helpers.
package domain
