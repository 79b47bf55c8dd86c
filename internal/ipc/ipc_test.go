package ipc

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imekbd/internal/ime"
)

type fakeDaemon struct {
	status    ime.Status
	resetOK   bool
	resets    int
	commits   int64
	statusGot int
}

func (d *fakeDaemon) Status() ime.Status {
	d.statusGot++
	return d.status
}

func (d *fakeDaemon) ResetKeys() bool {
	d.resets++
	return d.resetOK
}

func (d *fakeDaemon) CommitCount() int64 { return d.commits }

func startServer(t *testing.T, d Daemon) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctl.sock")
	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), path, d)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Close() })
	return path
}

func TestPing(t *testing.T) {
	path := startServer(t, &fakeDaemon{})

	resp, err := Do(path, Request{Op: OpPing})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Error)
}

func TestStatus(t *testing.T) {
	d := &fakeDaemon{
		status:  ime.Status{Active: true, Serial: 1, KeySlots: 3},
		commits: 42,
	}
	path := startServer(t, d)

	resp, err := Do(path, Request{Op: OpStatus})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Status)
	assert.True(t, resp.Status.Active)
	assert.Equal(t, uint32(1), resp.Status.Serial)
	assert.Equal(t, 3, resp.Status.KeySlots)
	assert.Equal(t, int64(42), resp.Commits)
}

func TestResetKeys(t *testing.T) {
	d := &fakeDaemon{resetOK: true}
	path := startServer(t, d)

	resp, err := Do(path, Request{Op: OpResetKeys})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 1, d.resets)

	d.resetOK = false
	resp, err = Do(path, Request{Op: OpResetKeys})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "no active session", resp.Error)
}

func TestUnknownOp(t *testing.T) {
	path := startServer(t, &fakeDaemon{})

	resp, err := Do(path, Request{Op: "explode"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown op")
}

func TestStaleSocketReplaced(t *testing.T) {
	d := &fakeDaemon{}
	path := filepath.Join(t.TempDir(), "ctl.sock")

	first := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), path, d)
	require.NoError(t, first.Start())
	require.NoError(t, first.Close())

	second := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), path, d)
	require.NoError(t, second.Start())
	defer second.Close()

	resp, err := Do(path, Request{Op: OpPing})
	require.NoError(t, err)
	assert.True(t, resp.OK)
}
