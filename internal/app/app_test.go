package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/epicenter/internal/config"
	"github.com/dshills/epicenter/internal/plugin/lua"
)

const tagScript = `
function on_event(doc)
	if doc.fields == nil then
		doc.fields = {}
	end
	if doc.fields.blocked then
		return nil, "blocked document"
	end
	doc.fields.tagged = true
	log("debug", "tagged", doc.kind)
end
`

func writeScript(t *testing.T, dir, name, code string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(context.Background(), cfg, Options{LogOutput: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { app.Shutdown(context.Background()) })
	return app
}

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dispatch.Mode = mode
	cfg.Journal.Path = filepath.Join(dir, "journal.db")
	cfg.Scripts = []config.ScriptConfig{{Path: writeScript(t, dir, "tag.lua", tagScript)}}
	return cfg
}

func TestApplication_Dispatch(t *testing.T) {
	for _, mode := range []string{config.ModeSync, config.ModeAsync} {
		t.Run(mode, func(t *testing.T) {
			app := newTestApp(t, testConfig(t, mode))
			ctx := context.Background()

			out, err := app.Dispatch(ctx, Document{Kind: "invoice", Fields: map[string]any{"amount": 10}})
			require.NoError(t, err)
			assert.Equal(t, "invoice", out.Kind)
			assert.Equal(t, true, out.Fields["tagged"])
			assert.EqualValues(t, 10, out.Fields["amount"])

			records, err := app.Records(ctx, 10)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, DocumentKey, records[0].Key)
			assert.JSONEq(t, `{"kind":"invoice","fields":{"amount":10,"tagged":true}}`, string(records[0].Payload))

			stats := app.Dispatcher().Stats()
			assert.Equal(t, uint64(1), stats.Dispatched)
			assert.Equal(t, uint64(3), stats.Invoked)
		})
	}
}

func TestApplication_ScriptRejects(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.ModeSync))
	ctx := context.Background()

	_, err := app.Dispatch(ctx, Document{Kind: "invoice", Fields: map[string]any{"blocked": true}})
	require.Error(t, err)
	assert.ErrorIs(t, err, lua.ErrRejected)

	records, err := app.Records(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestApplication_NullMode(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.ModeNull))
	ctx := context.Background()

	in := Document{Kind: "invoice", Fields: map[string]any{"amount": 10}}
	out, err := app.Dispatch(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	records, err := app.Records(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestApplication_Errors(t *testing.T) {
	app := newTestApp(t, config.Default())
	ctx := context.Background()

	_, err := app.Dispatch(ctx, Document{})
	assert.ErrorIs(t, err, ErrKindRequired)

	_, err = app.Records(ctx, 10)
	assert.ErrorIs(t, err, ErrJournalDisabled)

	out, err := app.Dispatch(ctx, Document{Kind: "note"})
	require.NoError(t, err)
	assert.Equal(t, "note", out.Kind)
}

func TestNew_InitErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Scripts = []config.ScriptConfig{{Path: filepath.Join(t.TempDir(), "missing.lua")}}

	_, err := New(context.Background(), cfg, Options{LogOutput: io.Discard})
	var ierr *InitError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, ierr.Component, "missing.lua")

	bad := config.Default()
	bad.Dispatch.Mode = "parallel"
	_, err = New(context.Background(), bad, Options{LogOutput: io.Discard})
	var verrs config.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestApplication_ShutdownTwice(t *testing.T) {
	app, err := New(context.Background(), testConfig(t, config.ModeAsync), Options{LogOutput: io.Discard})
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(context.Background()))
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestApplication_CleanupLogsShutdownError(t *testing.T) {
	var buf bytes.Buffer
	app := &Application{
		logger: NewLogger(config.LogConfig{Level: "info"}, &buf),
		shutdownTracing: func(context.Context) error {
			return errors.New("exporter unreachable")
		},
	}

	app.cleanup(context.Background())

	assert.Contains(t, buf.String(), "cleanup after failed start")
	assert.Contains(t, buf.String(), "exporter unreachable")
	assert.Nil(t, app.shutdownTracing)
}

func TestApplication_Logger(t *testing.T) {
	var buf bytes.Buffer
	app, err := New(context.Background(), testConfig(t, config.ModeSync), Options{LogOutput: &buf})
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	var logger hclog.Logger = app.Logger()
	logger.Warn("from caller")
	assert.Contains(t, buf.String(), "from caller")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn", JSON: true}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"@message":"shown"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}
