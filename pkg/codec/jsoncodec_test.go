package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID string `json:"id"`
}

func TestStrictRejectsUnknownFields(t *testing.T) {
	var p payload
	require.Error(t, JSONStrict.Unmarshal([]byte(`{"id":"a","extra":1}`), &p))

	require.NoError(t, JSONLenient.Unmarshal([]byte(`{"id":"a","extra":1}`), &p))
	assert.Equal(t, "a", p.ID)
}

func TestTrailingContentRejected(t *testing.T) {
	var p payload
	for _, c := range []Codec{JSONStrict, JSONLenient} {
		assert.Error(t, c.Unmarshal([]byte(`{"id":"a"} {"id":"b"}`), &p))
	}
}

func TestMarshalKeepsHTML(t *testing.T) {
	b, err := JSONStrict.Marshal(map[string]string{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, string(b))
	assert.Equal(t, "application/json", JSONLenient.ContentType())
}
