package cfg

import (
	"bytes"
	"testing"
	"time"

	"linecat/internal/app/apps"
	"linecat/internal/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFromArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    uint16
		wantErr bool
	}{
		{arg: "8080", want: 8080},
		{arg: "65535", want: 65535},
		{arg: "0", wantErr: true},
		{arg: "65536", wantErr: true},
		{arg: "-1", wantErr: true},
		{arg: "http", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			cfg, err := PortFromArg(tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, protocol.ArgumentError, protocol.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.port)
		})
	}
}

func TestApplyClientApp(t *testing.T) {
	var out bytes.Buffer
	app, err := apps.NewClientApp(
		NewFileCfg("ref.txt"),
		NewHostCfg("127.0.0.1"),
		NewPortCfg(4000),
		&ClientTimingCfg{Throttle: time.Millisecond, Window: time.Second, Iterations: 2},
		NewOutputCfg(&out),
	)
	require.NoError(t, err)
	assert.Equal(t, "ref.txt", app.ReferenceFile)
	assert.Equal(t, "127.0.0.1", app.Host)
	assert.Equal(t, uint16(4000), app.Port)
	assert.Equal(t, time.Millisecond, app.Throttle)
	assert.Equal(t, time.Second, app.Window)
	assert.Equal(t, 2, app.Iterations)
	assert.Same(t, &out, app.Output)
}

func TestApplyServerApp(t *testing.T) {
	app, err := apps.NewServerApp(
		NewFileCfg("lines.txt"),
		NewPortCfg(4000),
		&ServerTimingCfg{ReadTimeout: time.Second},
	)
	require.NoError(t, err)
	assert.Equal(t, "lines.txt", app.SourceFile)
	assert.Equal(t, ":4000", app.Addr())
	assert.Equal(t, time.Second, app.ReadTimeout)
}

func TestClientAppValidation(t *testing.T) {
	_, err := apps.NewClientApp(NewFileCfg("ref.txt"), NewHostCfg("not a host!"), NewPortCfg(4000))
	assert.Error(t, err)
	_, err = apps.NewClientApp(NewFileCfg("ref.txt"), NewHostCfg("localhost"))
	assert.Error(t, err)
	_, err = apps.NewServerApp(NewPortCfg(4000))
	assert.Error(t, err)
}
