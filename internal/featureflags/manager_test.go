package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	t.Parallel()
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, ""), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, "u1"), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	t.Parallel()
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", ""))
	assert.False(t, m.Enabled("never", "u1"))
	assert.False(t, m.Enabled("broken", "u1"))

	first := m.Enabled("canary", "4c1e")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", "4c1e"), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", ""), "percentage rollout requires a user id")
}

func TestParseAndSnapshot(t *testing.T) {
	t.Parallel()
	m := NewManager(" bad ,Demo_Login=on, reciprocal_hints = 20% ,z=off ")

	raw := m.Raw()
	assert.Equal(t, map[string]string{DemoLogin: "on", ReciprocalHints: "20%", "z": "off"}, raw)
	assert.Len(t, m.Snapshot("u1"), 3)
	assert.True(t, m.Enabled(DemoLogin, ""))
}

func TestNilManager(t *testing.T) {
	t.Parallel()
	var m *Manager
	assert.False(t, m.Enabled(DemoLogin, "u1"))
}
