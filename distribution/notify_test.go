package distribution

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, log.SetLogger("info", true, &buf))
	t.Cleanup(func() { _ = log.SetLogger("info", false, nil) })

	var n LogNotifier
	n.RecipientAdded(alice, 40)
	n.RecipientRemoved(bob)
	n.Released(ledger.NativeAsset, alice, 400)
	n.OwnershipTransferred(owner, carol)

	var lines []map[string]interface{}
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var m map[string]interface{}
		require.NoError(t, dec.Decode(&m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 4)

	assert.Equal(t, "recipient added", lines[0]["msg"])
	assert.Equal(t, alice.String(), lines[0]["recipient"])
	assert.EqualValues(t, 40, lines[0]["share"])
	assert.Equal(t, "recipient removed", lines[1]["msg"])
	assert.Equal(t, bob.String(), lines[1]["recipient"])
	assert.Equal(t, "payment released", lines[2]["msg"])
	assert.Equal(t, "native", lines[2]["asset"])
	assert.EqualValues(t, 400, lines[2]["amount"])
	assert.Equal(t, "ownership transferred", lines[3]["msg"])
	assert.Equal(t, carol.String(), lines[3]["to"])
}
