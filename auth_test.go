package x11

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authEntry(family uint16, addr, disp, name string, data []byte) []byte {
	var b bytes.Buffer
	put := func(field []byte) {
		binary.Write(&b, binary.BigEndian, uint16(len(field)))
		b.Write(field)
	}
	binary.Write(&b, binary.BigEndian, family)
	put([]byte(addr))
	put([]byte(disp))
	put([]byte(name))
	put(data)
	return b.Bytes()
}

func TestFindAuthority(t *testing.T) {
	var file []byte
	file = append(file, authEntry(familyLocal, "otherhost", "0", "MIT-MAGIC-COOKIE-1", []byte{1})...)
	file = append(file, authEntry(familyLocal, "myhost", "1", "MIT-MAGIC-COOKIE-1", []byte{2})...)
	file = append(file, authEntry(familyLocal, "myhost", "0", "MIT-MAGIC-COOKIE-1", []byte{3, 4})...)
	file = append(file, authEntry(familyWild, "", "", "XDM-AUTHORIZATION-1", []byte{5})...)

	name, data, err := findAuthority(bytes.NewReader(file), "myhost", "0")
	require.NoError(t, err)
	assert.Equal(t, "MIT-MAGIC-COOKIE-1", name)
	assert.Equal(t, []byte{3, 4}, data)

	name, data, err = findAuthority(bytes.NewReader(file), "myhost", "9")
	require.NoError(t, err)
	assert.Equal(t, "XDM-AUTHORIZATION-1", name)
	assert.Equal(t, []byte{5}, data)

	name, data, err = findAuthority(bytes.NewReader(file[:len(file)-9]), "nohost", "9")
	assert.Error(t, err, "truncated entry")
	assert.Empty(t, name)
	assert.Nil(t, data)

	name, _, err = findAuthority(bytes.NewReader(nil), "myhost", "0")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestReadAuthority(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "Xauthority")
	require.NoError(t, os.WriteFile(fname,
		authEntry(familyLocal, "myhost", "3", "MIT-MAGIC-COOKIE-1", []byte{9, 9}), 0600))
	t.Setenv("XAUTHORITY", fname)

	name, data, err := readAuthority("myhost", "3")
	require.NoError(t, err)
	assert.Equal(t, "MIT-MAGIC-COOKIE-1", name)
	assert.Equal(t, []byte{9, 9}, data)

	t.Setenv("XAUTHORITY", filepath.Join(t.TempDir(), "missing"))
	_, _, err = readAuthority("myhost", "3")
	assert.Error(t, err)
}
