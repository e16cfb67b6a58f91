package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manifestLike struct {
	Name string `json:"name"`
	Rows uint64 `json:"rows"`
}

func TestCodecs(t *testing.T) {
	in := manifestLike{Name: "v1.bsi", Rows: 250_000}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out manifestLike
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCodecsInteroperate(t *testing.T) {
	in := manifestLike{Name: "v1.bsi", Rows: 42}

	data, err := (GoJSON{}).Marshal(in)
	require.NoError(t, err)

	var out manifestLike
	require.NoError(t, (JSON{}).Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("cbor")
	assert.False(t, ok)
}

func TestUnmarshalError(t *testing.T) {
	var out manifestLike
	assert.Error(t, Default.Unmarshal([]byte("{not json"), &out))
}
