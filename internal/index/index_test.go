package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/value"
)

func TestPutLookup(t *testing.T) {
	ix := New("id")
	ix.Put(value.NewInt(1), 0)
	ix.Put(value.NewInt(2), 1)

	pos, ok := ix.Lookup(value.NewInt(2))
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	_, ok = ix.Lookup(value.NewInt(3))
	assert.False(t, ok)
}

func TestNullNeverIndexed(t *testing.T) {
	ix := New("id")
	ix.Put(value.Null(), 0)
	assert.Equal(t, 0, ix.Len())

	_, ok := ix.Lookup(value.Null())
	assert.False(t, ok)
}

func TestLookup_IntTextAlignment(t *testing.T) {
	ix := New("id")
	ix.Put(value.NewInt(7), 3)

	pos, ok := ix.Lookup(value.NewText("7"))
	require.True(t, ok)
	assert.Equal(t, 3, pos)
}

func TestRebuild(t *testing.T) {
	ix := New("id")
	ix.Put(value.NewInt(99), 42)

	rows := []record.Row{
		{"id": value.NewInt(1)},
		{"id": value.Null()},
		{"id": value.NewInt(3)},
	}
	ix.Rebuild(rows)

	assert.Equal(t, 2, ix.Len())
	pos, ok := ix.Lookup(value.NewInt(3))
	require.True(t, ok)
	assert.Equal(t, 2, pos)
	_, ok = ix.Lookup(value.NewInt(99))
	assert.False(t, ok)
}

func TestSet(t *testing.T) {
	s := NewSet()
	s.EnsureTable("users", []string{"id", "email"})
	require.Len(t, s.Table("users"), 2)

	rows := []record.Row{{"id": value.NewInt(1), "email": value.NewText("a@x")}}
	s.RebuildTable("users", rows)

	pos, ok := s.Table("users")["email"].Lookup(value.NewText("a@x"))
	require.True(t, ok)
	assert.Equal(t, 0, pos)
}
