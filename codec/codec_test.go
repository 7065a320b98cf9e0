package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecsAgree(t *testing.T) {
	values := []any{
		[]any{"a", "b"},
		[]any{1, "B"},
		[]any{"x<y>&z", 2.5, true, nil},
		map[string]string{"z": "1", "a": "2", "m": "3"},
	}

	for _, v := range values {
		a, err := JSON{}.Marshal(v)
		require.NoError(t, err)
		b, err := GoJSON{}.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestMarshalCompactSorted(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			out, err := c.Marshal(map[string]string{"b": "2", "a": "<1>"})
			require.NoError(t, err)
			assert.Equal(t, `{"a":"<1>","b":"2"}`, string(out))

			out, err = c.Marshal([]any{"A", "B"})
			require.NoError(t, err)
			assert.Equal(t, `["A","B"]`, string(out))
		})
	}
}

func TestUnmarshalKeepsNumbers(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var v []any
			require.NoError(t, c.Unmarshal([]byte(`[1,"B",2.5]`), &v))
			require.Len(t, v, 3)

			n, ok := v[0].(interface{ Int64() (int64, error) })
			require.True(t, ok)
			i, err := n.Int64()
			require.NoError(t, err)
			assert.Equal(t, int64(1), i)
			assert.Equal(t, "B", v[1])
		})
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestMustMarshalDefault(t *testing.T) {
	assert.Equal(t, `["a"]`, string(MustMarshal(nil, []string{"a"})))
	assert.Panics(t, func() { MustMarshal(JSON{}, func() {}) })
}
