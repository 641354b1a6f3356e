package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string   `json:"name" msgpack:"name"`
	Age   int      `json:"age" msgpack:"age"`
	Tags  []string `json:"tags" msgpack:"tags"`
	Admin bool     `json:"admin" msgpack:"admin"`
}

func allCodecs() []Codec {
	return []Codec{JSON, Msgpack, Compressed(JSON), Compressed(Msgpack)}
}

func TestCodecs_RoundTripStruct(t *testing.T) {
	in := profile{Name: "alice", Age: 30, Tags: []string{"a", "b"}, Admin: true}
	for _, c := range allCodecs() {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out profile
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCodecs_RoundTripScalar(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(uint32(123))
			require.NoError(t, err)

			var out uint32
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, uint32(123), out)
		})
	}
}

func TestCodecs_RoundTripMap(t *testing.T) {
	in := map[string]interface{}{
		"name":   "bob",
		"nested": map[string]interface{}{"city": "Paris"},
		"list":   []interface{}{"x", "y"},
	}
	for _, c := range allCodecs() {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out map[string]interface{}
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestJSON_IsIndented(t *testing.T) {
	data, err := JSON.Marshal(map[string]interface{}{"name": "a"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"a\"\n}\n", string(data))
}

func TestJSON_RejectsCorruptInput(t *testing.T) {
	var out map[string]interface{}
	assert.Error(t, JSON.Unmarshal([]byte(`{"name":`), &out))
	assert.Error(t, JSON.Unmarshal([]byte(`{"a":1} {"b":2}`), &out))
	assert.Error(t, JSON.Unmarshal(nil, &out))
	assert.NoError(t, JSON.Unmarshal([]byte("{\"a\":1}\n\n"), &out))
}

func TestMsgpack_RejectsCorruptInput(t *testing.T) {
	data, err := Msgpack.Marshal(map[string]interface{}{"a": "b"})
	require.NoError(t, err)

	var out map[string]interface{}
	assert.Error(t, Msgpack.Unmarshal(data[:len(data)-1], &out))
	assert.Error(t, Msgpack.Unmarshal(append(data, data...), &out))
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"json", "json"},
		{"", "json"},
		{"MsgPack", "msgpack"},
		{"json+lz4", "json+lz4"},
		{"msgpack+lz4", "msgpack+lz4"},
	}
	for _, tt := range tests {
		c, err := ByName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, c.Name())
	}

	_, err := ByName("yaml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown codec"))
}
