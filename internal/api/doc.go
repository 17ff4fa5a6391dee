// Package api provides the HTTP REST surface for Portal Core.
//
// It exposes tag registry operations and controller status to external
// collaborators (home-automation hubs, dashboards, scripts).
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
