package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleViewer))
	assert.True(t, RoleOwner.AtLeast(RoleEditor))
	assert.True(t, RoleOwner.AtLeast(RoleOwner))

	assert.True(t, RoleEditor.AtLeast(RoleViewer))
	assert.True(t, RoleEditor.AtLeast(RoleEditor))
	assert.False(t, RoleEditor.AtLeast(RoleOwner))

	assert.True(t, RoleViewer.AtLeast(RoleViewer))
	assert.False(t, RoleViewer.AtLeast(RoleEditor))
	assert.False(t, RoleViewer.AtLeast(RoleOwner))
}

func TestUnknownRoleNeverSuffices(t *testing.T) {
	// A role value that slipped past validation must not satisfy any
	// requirement, not even VIEWER.
	bogus := Role("ADMIN")
	assert.False(t, bogus.AtLeast(RoleViewer))
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"VIEWER", "EDITOR", "OWNER"} {
		r, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}
	for _, s := range []string{"", "owner", "Admin", "EDITOR "} {
		_, err := ParseRole(s)
		assert.Error(t, err, "input %q", s)
	}
}
