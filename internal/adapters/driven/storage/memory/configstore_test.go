package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"store.root": "kb"}
	store := NewConfigStore(seed)
	seed["store.root"] = "changed"

	assert.Equal(t, "kb", store.GetString("store.root"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore(nil)

	require.NoError(t, store.Set("notion.token", "secret"))

	val, ok := store.Get("notion.token")
	assert.True(t, ok)
	assert.Equal(t, "secret", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_GetString_WrongType(t *testing.T) {
	store := NewConfigStore(map[string]any{"k": int64(3)})

	assert.Equal(t, "", store.GetString("k"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"int":     7,
		"int64":   int64(5),
		"float64": 2.9,
		"string":  "4",
	})

	tests := []struct {
		key  string
		want int
	}{
		{"int", 7},
		{"int64", 5},
		{"float64", 2},
		{"string", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, store.GetInt(tt.key))
		})
	}
}

func TestConfigStore_SetErr(t *testing.T) {
	store := NewConfigStore(nil)
	store.SetErr = errors.New("disk full")

	err := store.Set("k", "v")

	assert.EqualError(t, err, "disk full")
	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore(nil)

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentSet(t *testing.T) {
	store := NewConfigStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
			_ = store.GetInt("counter")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
