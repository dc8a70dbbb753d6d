package secondary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/you/replicatedlog/internal/model"
)

func TestApplierInOrderApply(t *testing.T) {
	a := New("sec1", 0, nil, nil)

	ok, msg := a.Replicate(1, "a")
	require.True(t, ok)
	require.Equal(t, "Success", msg)

	ok, msg = a.Replicate(2, "b")
	require.True(t, ok)
	require.Equal(t, "Success", msg)

	log := a.ReadLog()
	require.Len(t, log, 2)
	require.Equal(t, uint64(1), log[0].ID)
	require.Equal(t, uint64(2), log[1].ID)
}

func TestApplierDuplicateIsIdempotent(t *testing.T) {
	a := New("sec1", 0, nil, nil)

	a.Replicate(1, "a")
	ok, msg := a.Replicate(1, "a")
	require.True(t, ok)
	require.Equal(t, "Duplicate", msg)
	require.Len(t, a.ReadLog(), 1)
}

func TestApplierOutOfOrderBuffersAndDrains(t *testing.T) {
	a := New("sec1", 0, nil, nil)

	ok, msg := a.Replicate(3, "c")
	require.True(t, ok)
	require.Equal(t, "Success", msg)
	require.Empty(t, a.ReadLog(), "id 3 must buffer, not apply, while 1 and 2 are missing")

	a.Replicate(2, "b")
	require.Empty(t, a.ReadLog(), "id 2 must also buffer without id 1")

	a.Replicate(1, "a")
	log := a.ReadLog()
	require.Len(t, log, 3, "receiving id 1 must drain the buffered 2 and 3 contiguously")
	require.Equal(t, []uint64{1, 2, 3}, ids(log))
}

func TestApplierGetMissedLogs(t *testing.T) {
	a := New("sec1", 0, nil, nil)
	a.Replicate(1, "a")
	a.Replicate(2, "b")
	a.Replicate(3, "c")

	missed := a.GetMissedLogs(1)
	require.Len(t, missed, 2)
	require.Equal(t, uint64(2), missed[0].ID)
	require.Equal(t, uint64(3), missed[1].ID)
}

func TestApplierHealthStatus(t *testing.T) {
	a := New("sec1", 0, nil, nil)
	a.Replicate(1, "a")
	a.Replicate(3, "c")

	status := a.HealthStatus()
	require.Equal(t, uint64(1), status.LastLogID)
	require.Equal(t, 1, status.TotalLogs)
	require.Equal(t, 1, status.BufferedMessages)
	require.Equal(t, uint64(2), status.NextExpectedID)
}

func ids(msgs []model.Message) []uint64 {
	out := make([]uint64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
