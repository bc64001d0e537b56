package x11

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionOwners(t *testing.T) {
	RegisterExtension("OWNER-A", 2, []string{"BadA0", "BadA1"})

	reg := newExtensionRegistry()
	reg.add("OWNER-A", &ExtensionInfo{Name: "OWNER-A", MajorOpcode: 130, FirstEvent: 80, FirstError: 140})
	reg.add("OWNER-B", &ExtensionInfo{Name: "OWNER-B", MajorOpcode: 131, FirstEvent: 90, FirstError: 150})
	reg.add("NO-CODES", &ExtensionInfo{Name: "NO-CODES", MajorOpcode: 132})
	reg.add("ABSENT", nil)

	info, cached := reg.lookup("ABSENT")
	assert.True(t, cached)
	assert.Nil(t, info)
	_, cached = reg.lookup("absent")
	assert.False(t, cached, "names are case sensitive")

	testCases := []struct {
		code  byte
		owner string
		index int
	}{
		{79, "", 0},
		{80, "OWNER-A", 0},
		{81, "OWNER-A", 1},
		{82, "", 0}, // beyond the registered count
		{90, "OWNER-B", 0},
		{120, "OWNER-B", 30}, // unregistered, unbounded
	}
	for _, tc := range testCases {
		info, index, ok := reg.eventOwner(tc.code)
		if tc.owner == "" {
			assert.False(t, ok, "event %d", tc.code)
			continue
		}
		require.True(t, ok, "event %d", tc.code)
		assert.Equal(t, tc.owner, info.Name)
		assert.Equal(t, tc.index, index)
	}

	_, name, ok := reg.errorOwner(141)
	require.True(t, ok)
	assert.Equal(t, "OWNER-A:BadA1", name)
	_, _, ok = reg.errorOwner(142)
	assert.False(t, ok)
	_, name, ok = reg.errorOwner(153)
	require.True(t, ok)
	assert.Equal(t, "OWNER-B:Error3", name)
	_, _, ok = reg.errorOwner(139)
	assert.False(t, ok)
}
