package agegroups

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexID_Unmarshal(t *testing.T) {
	cases := map[string]FlexID{
		`"3"`:   "3",
		`" 7 "`: "7",
		`12`:    "12",
		`null`:  "",
	}
	for raw, want := range cases {
		var id FlexID
		require.NoError(t, json.Unmarshal([]byte(raw), &id), raw)
		assert.Equal(t, want, id, raw)
	}

	var id FlexID
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
}
