package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectpulse/gridcore/pkg/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokenLifecycle(t *testing.T) {
	s := openStore(t)

	assert.Equal(t, "", s.Token())

	require.NoError(t, s.SetToken("bearer-abc"))
	assert.Equal(t, "bearer-abc", s.Token())

	// Overwrite, then clear on session expiry.
	require.NoError(t, s.SetToken("bearer-def"))
	assert.Equal(t, "bearer-def", s.Token())

	require.NoError(t, s.ClearToken())
	assert.Equal(t, "", s.Token())
}

func TestActiveSectionPersists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	_, ok := s.ActiveSection()
	assert.False(t, ok)
	require.NoError(t, s.SetActiveSection(models.SectionPrivate))
	require.NoError(t, s.Close())

	// Survives a reopen.
	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	section, ok := s2.ActiveSection()
	require.True(t, ok)
	assert.Equal(t, models.SectionPrivate, section)
}
