package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetLogger("info", true, &buf))
	t.Cleanup(func() { _ = SetLogger("info", false, nil) })

	Info("payout", "asset", "native", "amount", 400, 7)
	Debug("hidden")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "payout", rec["msg"])
	assert.Equal(t, "native", rec["asset"])
	assert.Equal(t, float64(400), rec["amount"])
	assert.Equal(t, "info", rec["level"])
}

func TestSetLoggerBadLevel(t *testing.T) {
	assert.Error(t, SetLogger("loud", false, nil))
}

func TestWithFieldsSkipsBadKeys(t *testing.T) {
	e := WithFields("a", 1, 2, "b", "c")
	assert.Equal(t, logrus.Fields{"a": 1}, e.Data)
}

func TestOpenFile(t *testing.T) {
	f, err := OpenFile(t.TempDir() + "/revsplit.log")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
