// Package domain contains the entities exchanged between the proxy service,
// its HTTP handlers and the CLI. These types are free of transport and
// parsing concerns so they can be shared across packages.
package domain
