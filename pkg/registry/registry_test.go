package registry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
)

func TestRegisterBuiltins_CoversEveryKind(t *testing.T) {
	r := NewRegistry(slog.New(slog.DiscardHandler))
	r.RegisterBuiltins()

	for _, kind := range models.AllNodeKinds() {
		assert.True(t, r.Knows(kind), "kind %q has no factory", kind)
	}
}

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry(slog.New(slog.DiscardHandler))
	r.RegisterBuiltins()

	handler, err := r.Create(&models.Node{
		ID:     "n1",
		Kind:   models.NodeKindText,
		Config: map[string]any{"content": "oi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", handler.ID())
	assert.Equal(t, models.NodeKindText, handler.Kind())
}

func TestRegistry_CreateUnknownKind(t *testing.T) {
	r := NewRegistry(slog.New(slog.DiscardHandler))

	_, err := r.Create(&models.Node{ID: "n1", Kind: "hologram"})
	assert.Error(t, err)
}

func TestRegistry_CreateBadConfig(t *testing.T) {
	r := NewRegistry(slog.New(slog.DiscardHandler))
	r.RegisterBuiltins()

	_, err := r.Create(&models.Node{ID: "n1", Kind: models.NodeKindText, Config: map[string]any{}})
	assert.Error(t, err)
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	r := NewRegistry(slog.New(slog.DiscardHandler))
	r.RegisterBuiltins()

	assert.Panics(t, func() { r.RegisterBuiltins() })
}
