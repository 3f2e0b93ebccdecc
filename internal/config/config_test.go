package config

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFS is an in-memory file system for testing.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeSync, cfg.Dispatch.Mode)
	assert.Equal(t, 10, cfg.Dispatch.Workers)
	assert.Equal(t, 1024, cfg.Dispatch.QueueSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Trace.Enabled)
	assert.Empty(t, cfg.Journal.Path)
}

func TestLoad_TOML(t *testing.T) {
	fsys := memFS{"/etc/epicenter.toml": `
[dispatch]
mode = "async"
workers = 4
listener_timeout = "250ms"

[log]
level = "debug"
json = true

[journal]
path = "/var/lib/epicenter.db"

[[scripts]]
path = "tag.lua"

[[scripts]]
path = "limit.lua"
function = "check"
timeout = "1s"
`}

	cfg, err := LoadFS(fsys, "/etc/epicenter.toml", map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ModeAsync, cfg.Dispatch.Mode)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, 1024, cfg.Dispatch.QueueSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.ListenerTimeout.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "/var/lib/epicenter.db", cfg.Journal.Path)
	require.Len(t, cfg.Scripts, 2)
	assert.Equal(t, ScriptConfig{Path: "tag.lua"}, cfg.Scripts[0])
	assert.Equal(t, "check", cfg.Scripts[1].Function)
	assert.Equal(t, time.Second, cfg.Scripts[1].Timeout.Std())
}

func TestLoad_YAML(t *testing.T) {
	fsys := memFS{"epicenter.yaml": `
dispatch:
  mode: "null"
  listener_timeout: 2s
trace:
  enabled: true
  endpoint: localhost:4318
scripts:
  - path: tag.lua
`}

	cfg, err := LoadFS(fsys, "epicenter.yaml", map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ModeNull, cfg.Dispatch.Mode)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.ListenerTimeout.Std())
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Trace.Endpoint)
	assert.Equal(t, "epicenter", cfg.Trace.ServiceName)
	require.Len(t, cfg.Scripts, 1)
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := LoadFS(memFS{"empty.yml": ""}, "empty.yml", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	fsys := memFS{"c.toml": `
[dispatch]
mode = "async"
workers = 4

[log]
level = "debug"
`}
	environ := map[string]string{
		"EPICENTER_DISPATCH_WORKERS":          "16",
		"EPICENTER_DISPATCH_LISTENER_TIMEOUT": "3s",
		"EPICENTER_LOG_JSON":                  "true",
		"EPICENTER_JOURNAL_PATH":              "j.db",
		"DISPATCH_WORKERS":                    "99",
	}

	cfg, err := LoadFS(fsys, "c.toml", environ)
	require.NoError(t, err)

	assert.Equal(t, ModeAsync, cfg.Dispatch.Mode)
	assert.Equal(t, 16, cfg.Dispatch.Workers)
	assert.Equal(t, 3*time.Second, cfg.Dispatch.ListenerTimeout.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "j.db", cfg.Journal.Path)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := LoadFS(memFS{}, "", map[string]string{"EPICENTER_DISPATCH_MODE": "null"})
	require.NoError(t, err)
	assert.Equal(t, ModeNull, cfg.Dispatch.Mode)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    memFS
		path    string
		environ map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			fsys: memFS{},
			path: "missing.toml",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrFileNotFound)
			},
		},
		{
			name: "unsupported extension",
			fsys: memFS{"c.ini": "mode=sync"},
			path: "c.ini",
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unsupported config format")
			},
		},
		{
			name: "toml syntax",
			fsys: memFS{"c.toml": "[dispatch\nmode = 1"},
			path: "c.toml",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "c.toml", perr.Path)
				assert.Positive(t, perr.Line)
			},
		},
		{
			name: "unknown toml key",
			fsys: memFS{"c.toml": "[dispatch]\nmodes = \"sync\""},
			path: "c.toml",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name: "unknown yaml key",
			fsys: memFS{"c.yaml": "dispatch:\n  modes: sync\n"},
			path: "c.yaml",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name: "bad duration",
			fsys: memFS{"c.toml": "[dispatch]\nlistener_timeout = \"soon\""},
			path: "c.toml",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name:    "bad env value",
			fsys:    memFS{},
			environ: map[string]string{"EPICENTER_DISPATCH_WORKERS": "many"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "parse env")
			},
		},
		{
			name:    "invalid mode",
			fsys:    memFS{},
			environ: map[string]string{"EPICENTER_DISPATCH_MODE": "parallel"},
			check: func(t *testing.T, err error) {
				var verrs ValidationErrors
				require.ErrorAs(t, err, &verrs)
				require.Len(t, verrs, 1)
				assert.Equal(t, "dispatch.mode", verrs[0].Path)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := tt.environ
			if environ == nil {
				environ = map[string]string{}
			}
			_, err := LoadFS(tt.fsys, tt.path, environ)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Dispatch.Mode = ModeAsync
	cfg.Dispatch.Workers = 0
	cfg.Dispatch.QueueSize = -1
	cfg.Dispatch.ListenerTimeout = Duration(-time.Second)
	cfg.Log.Level = "loud"
	cfg.Trace.Enabled = true
	cfg.Trace.ServiceName = ""
	cfg.Scripts = []ScriptConfig{{Function: "on_event"}}

	err := cfg.Validate()
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	var paths []string
	for _, v := range verrs {
		paths = append(paths, v.Path)
	}
	assert.Equal(t, []string{
		"dispatch.workers",
		"dispatch.queue_size",
		"dispatch.listener_timeout",
		"log.level",
		"trace.service_name",
		"scripts[0].path",
	}, paths)
	assert.Contains(t, err.Error(), "invalid config: ")
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}
