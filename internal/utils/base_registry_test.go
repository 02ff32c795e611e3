package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseRegistry_Register(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		expectError bool
		errorMsg    string
	}{
		{
			name: "distinct keys",
			keys: []string{"Tx", "Audit"},
		},
		{
			name:        "duplicate key",
			keys:        []string{"Tx", "Tx"},
			expectError: true,
			errorMsg:    "interceptor class 'Tx' is already registered",
		},
		{
			name:        "empty key",
			keys:        []string{""},
			expectError: true,
			errorMsg:    "interceptor class cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewBaseRegistry[string, int]("interceptor", "interceptor class")
			r.SetValidator(ChainValidators(
				NotEmptyKeyValidator[string, int]("interceptor class"),
				NoDuplicateValidator[string, int]("interceptor class"),
			))

			var err error
			for i, key := range tt.keys {
				if err = r.Register(key, i); err != nil {
					break
				}
			}

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Contains(t, err.Error(), "interceptor registry")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.keys, r.Keys())
		})
	}
}

func TestBaseRegistry_PutKeepsFirstOrder(t *testing.T) {
	r := NewBaseRegistry[string, int]("model", "class")

	assert.False(t, r.Put("a", 1))
	assert.False(t, r.Put("b", 2))
	assert.True(t, r.Put("a", 3))

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	assert.Equal(t, []int{3, 2}, r.Values())

	v, err := r.GetOrError("a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = r.GetOrError("missing")
	assert.EqualError(t, err, "class 'missing' is not registered")
}

func TestBaseRegistry_FilterAndClear(t *testing.T) {
	r := NewBaseRegistry[string, int]("model", "class")
	r.Put("a", 1)
	r.Put("b", 2)
	r.Put("c", 3)

	odd := r.Filter(func(_ string, v int) bool { return v%2 == 1 })
	assert.Equal(t, []int{1, 3}, odd)

	var visited []string
	r.ForEach(func(k string, _ int) { visited = append(visited, k) })
	assert.Equal(t, []string{"a", "b", "c"}, visited)

	r.Clear()
	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.Keys())
	assert.False(t, r.Has("a"))
}

func TestBaseRegistry_ConcurrentPut(t *testing.T) {
	r := NewBaseRegistry[int, int]("model", "class")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Put(i%10, i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, r.Size())
}
