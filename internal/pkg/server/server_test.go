package server

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"linecat/internal/pkg/protocol"
	"linecat/internal/pkg/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer serves src on a loopback port and returns its address.
func startServer(t *testing.T, src source.Source) (string, *Server) {
	t.Helper()
	s, err := NewServer(WithSource(src), WithReadTimeout(time.Second))
	require.NoError(t, err)
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Serve(ctx, ln))
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return ln.Addr().String(), s
}

// request opens a connection, writes each part separately and returns the raw reply.
func request(t *testing.T, addr string, parts ...string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	for _, p := range parts {
		_, err := conn.Write([]byte(p))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	return reply
}

func openSource(t *testing.T, contents string) *source.FileSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	src, err := source.Open(path)
	require.NoError(t, err)
	return src
}

func TestServerFooBarFoo(t *testing.T) {
	addr, s := startServer(t, openSource(t, "foo\nbar\n"))
	assert.Equal(t, "+FOO\n", request(t, addr, "LINE\n"))
	assert.Equal(t, "+BAR\n", request(t, addr, "LINE\n"))
	assert.Equal(t, "+FOO\n", request(t, addr, "LINE\n"))
	assert.Eventually(t, func() bool {
		return s.Stats().Served == 3
	}, time.Second, 10*time.Millisecond)
}

func TestServerCyclesEveryLine(t *testing.T) {
	lines := []string{"alpha", "Beta", "gamma delta", "", "épsilon"}
	addr, _ := startServer(t, openSource(t, strings.Join(lines, "\n")+"\n"))
	for round := 0; round < 2; round++ {
		for _, line := range lines {
			assert.Equal(t, "+"+protocol.Upper(line)+"\n", request(t, addr, "LINE\n"))
		}
	}
}

func TestServerTokenInTwoSegments(t *testing.T) {
	addr, _ := startServer(t, openSource(t, "foo\n"))
	assert.Equal(t, "+FOO\n", request(t, addr, "LI", "NE\n"))
}

func TestServerRejectsUnknownToken(t *testing.T) {
	addr, s := startServer(t, openSource(t, "foo\nbar\n"))
	assert.Equal(t, "-"+protocol.RejectUnknownRequest+"\n", request(t, addr, "GIMME\n"))
	assert.Equal(t, "+FOO\n", request(t, addr, "LINE\n"))
	assert.Eventually(t, func() bool {
		stats := s.Stats()
		return stats.Rejected == 1 && stats.Served == 1
	}, time.Second, 10*time.Millisecond)
}

func TestServerRejectsOversizedFrame(t *testing.T) {
	addr, _ := startServer(t, openSource(t, "foo\n"))
	reply := request(t, addr, strings.Repeat("L", protocol.MaxMessageSize))
	assert.True(t, strings.HasPrefix(reply, "-"), reply)
}

func TestServerEmptySource(t *testing.T) {
	addr, _ := startServer(t, openSource(t, ""))
	assert.Equal(t, "+\n", request(t, addr, "LINE\n"))
	assert.Equal(t, "+\n", request(t, addr, "LINE\n"))
}

func TestServerSurvivesSilentClient(t *testing.T) {
	addr, s := startServer(t, openSource(t, "foo\n"))
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.Equal(t, "+FOO\n", request(t, addr, "LINE\n"))
	assert.Eventually(t, func() bool {
		return s.Stats().Failed == 1
	}, time.Second, 10*time.Millisecond)
}

func TestServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(WithSource(openSource(t, "foo\n")))
	require.NoError(t, err)
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenFailure(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	_, err = Listen(ln.Addr().String())
	require.Error(t, err)
	assert.Equal(t, protocol.ConnectionFailed, protocol.KindOf(err))
}

func TestNewServerRequiresSource(t *testing.T) {
	_, err := NewServer()
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestServerSendsLatin1LinesUnchanged(t *testing.T) {
	long := strings.Repeat("\xe9", 400)
	addr, s := startServer(t, openSource(t, "caf\xe9\n"+long+"\n"))
	assert.Equal(t, "+CAF\xe9\n", request(t, addr, "LINE\n"))
	assert.Equal(t, "+"+long+"\n", request(t, addr, "LINE\n"))
	assert.Eventually(t, func() bool {
		stats := s.Stats()
		return stats.Served == 2 && stats.Rejected == 0
	}, time.Second, 10*time.Millisecond)
}
