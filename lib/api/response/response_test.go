package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Envelope(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	ok, err := json.Marshal(Ok(map[string]bool{"valid": true}))
	require.NoError(err)
	assert.JSONEq(`{"data":{"valid":true},"success":true,"status_message":"Success"}`, string(ok))

	// data is omitted on errors, not rendered as null
	fail, err := json.Marshal(Error("Invalid request: key required"))
	require.NoError(err)
	assert.JSONEq(`{"success":false,"status_message":"Invalid request: key required"}`, string(fail))
}
