// Package app is the request core: bootstrap, dispatch and model loading.
//
// Kernel builds one Instance per request in a fixed order (path, session,
// connection, options, user), hands it to Decide, and performs exactly one
// terminal action: the installer model, the sub-router, or a model load.
// Depends on domain interfaces, not concrete implementations.
package app
