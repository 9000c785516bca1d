package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "printers.json")
	reg, err := New(path)
	require.NoError(t, err)
	return reg, path
}

func TestNew_MissingFile(t *testing.T) {
	reg, _ := newRegistry(t)
	assert.Empty(t, reg.List())
}

func TestNew_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestRegister_Serial(t *testing.T) {
	reg, _ := newRegistry(t)
	info := Info{Type: TypeSerial, Device: "/dev/ttyUSB0", Description: "Zebra GK420"}

	e1, err := reg.Register(info)
	require.NoError(t, err)
	assert.NotEmpty(t, e1.ID)
	assert.Equal(t, DefaultBaud, e1.Baud)

	e2, err := reg.Register(info)
	require.NoError(t, err)
	assert.Equal(t, e1.ID, e2.ID, "same device must keep its id")
}

func TestRegister_NetworkDefaultPort(t *testing.T) {
	reg, _ := newRegistry(t)

	e1, err := reg.Register(Info{Type: TypeNetwork, Host: "192.168.1.50"})
	require.NoError(t, err)
	assert.Equal(t, 9100, e1.Port)

	e2, err := reg.Register(Info{Type: TypeNetwork, Host: "192.168.1.50", Port: 9100})
	require.NoError(t, err)
	assert.Equal(t, e1.ID, e2.ID)

	e3, err := reg.Register(Info{Type: TypeNetwork, Host: "192.168.1.51"})
	require.NoError(t, err)
	assert.NotEqual(t, e1.ID, e3.ID)
}

func TestSetName_Persists(t *testing.T) {
	reg, path := newRegistry(t)
	e, err := reg.Register(Info{Type: TypeSerial, Device: "/dev/ttyACM0", Description: "Label printer"})
	require.NoError(t, err)

	require.NoError(t, reg.SetName(e.ID, "  Front desk  "))

	reloaded, err := New(path)
	require.NoError(t, err)
	got, err := reloaded.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Front desk", got.Name)
	assert.Equal(t, "Front desk", got.DisplayName())
}

func TestUnknownID(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, reg.SetName("nope", "x"), ErrNotFound)
	assert.ErrorIs(t, reg.Remove("nope"), ErrNotFound)
}

func TestRemove(t *testing.T) {
	reg, _ := newRegistry(t)
	e, err := reg.Register(Info{Type: TypeNetwork, Host: "printer.local"})
	require.NoError(t, err)

	require.NoError(t, reg.Remove(e.ID))
	assert.Empty(t, reg.List())
}

func TestList_SortedByDisplayName(t *testing.T) {
	reg, _ := newRegistry(t)
	_, err := reg.Register(Info{Type: TypeSerial, Device: "/dev/b", Description: "Bravo"})
	require.NoError(t, err)
	_, err = reg.Register(Info{Type: TypeSerial, Device: "/dev/a", Description: "Alpha"})
	require.NoError(t, err)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].DisplayName())
	assert.Equal(t, "Bravo", list[1].DisplayName())
}

func TestIdentityKey_Fallback(t *testing.T) {
	a := identityKey(Info{Type: TypeSerial, Description: "x"})
	b := identityKey(Info{Type: TypeSerial, Description: "x"})
	c := identityKey(Info{Type: TypeSerial, Description: "y"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "hash:")
}
