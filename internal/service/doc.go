// Package service provides the tool registry that transports dispatch into.
//
// The registry maintains a catalog of service providers, resolves bare tool
// names ("get_files") and qualified tool IDs ("filesystem.get_files") to the
// owning provider, and scores providers for intent-based discovery.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(filesystem.NewProvider(files))
//	result, err := registry.Execute(ctx, "get_files", params, appCtx)
package service
