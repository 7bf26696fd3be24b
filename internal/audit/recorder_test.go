package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderWithoutPool(t *testing.T) {
	var nilRecorder *Recorder
	require.Error(t, nilRecorder.Record(context.Background(), Entry{}))

	rec := NewRecorder(nil, nil)
	require.Error(t, rec.Record(context.Background(), Entry{Table: "invoices", RecordID: "x", Action: "insert"}))
}

func TestMarshalValues(t *testing.T) {
	out, err := marshalValues(nil)
	require.NoError(t, err)
	require.Nil(t, out)

	out, err = marshalValues(map[string]any{"amount": 12.5})
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":12.5}`, string(out.([]byte)))
}
