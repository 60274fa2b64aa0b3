// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/jornadaflow/jornada/pkg/registry"
)

// NewRegistry builds the node registry with every built-in kind registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	reg.RegisterBuiltins()

	return reg
}
