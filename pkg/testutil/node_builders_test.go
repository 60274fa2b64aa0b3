package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/registry"
)

// The default node builder must produce a node the registry can decode,
// otherwise every test built on it dies at handler creation instead of
// exercising what it meant to test.
func TestCreateTestNodeDecodesThroughRegistry(t *testing.T) {
	r := registry.NewRegistry(slog.New(slog.DiscardHandler))
	r.RegisterBuiltins()

	node := CreateTestNode()

	handler, err := r.Create(node)
	require.NoError(t, err)
	assert.Equal(t, models.NodeKindText, handler.Kind())
}
