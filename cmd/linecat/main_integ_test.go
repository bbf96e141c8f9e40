//go:build integration

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"linecat/internal/app/apps"
	"linecat/internal/app/cfg"
	"linecat/internal/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func execute(ctx context.Context, out io.Writer, args ...string) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	return rootCmd.ExecuteContext(ctx)
}

func TestClientAgainstServerApp(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := apps.NewServerApp(
			cfg.NewFileCfg(writeFile(t, "lines.txt", "foo\nbar\n")),
			cfg.NewHostCfg("127.0.0.1"),
			cfg.NewPortCfg(port),
		)
		if !assert.NoError(t, err) {
			return
		}
		assert.NoError(t, s.Run(ctx))
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port)))
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	var out bytes.Buffer
	require.NoError(t, execute(ctx, &out,
		"client", writeFile(t, "ref.txt", "foo\n"), "127.0.0.1", strconv.Itoa(int(port)),
		"--throttle-ms", "0",
		"--iterations", "3",
		"--log-level", "error",
	))
	assert.Equal(t, "OK\nMISSING\nOK\n", out.String())
}

func TestArgumentErrors(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	tests := []struct {
		name string
		args []string
	}{
		{name: "client missing args", args: []string{"client", "ref.txt"}},
		{name: "client bad port", args: []string{"client", "ref.txt", "127.0.0.1", "http"}},
		{name: "server missing args", args: []string{"server", "lines.txt"}},
		{name: "server port out of range", args: []string{"server", "lines.txt", "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(context.Background(), io.Discard, tt.args...)
			require.Error(t, err)
			assert.Equal(t, protocol.ArgumentError, protocol.KindOf(err))
		})
	}
}

func TestServerMissingFile(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	err := execute(context.Background(), io.Discard,
		"server", filepath.Join(t.TempDir(), "missing.txt"), "1",
		"--log-level", "error",
	)
	require.Error(t, err)
	assert.Equal(t, protocol.FileUnavailable, protocol.KindOf(err))
}
