package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/cv-autofill/internal/assign"
	"github.com/jonathan/cv-autofill/internal/config"
	"github.com/jonathan/cv-autofill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// TestMain checks that no command leaves the name lock watcher or the
// document dispatcher running.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const applicationForm = `<html><body><form>
  <label for="fn">First Name</label><input id="fn" name="first_name">
  <label for="ln">Last Name</label><input id="ln" name="last_name">
  <label>Email <input type="email" name="email"></label>
  <label>Password <input type="password" name="password"></label>
</form></body></html>`

func testApp(cfg *config.Config) *app {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &app{cfg: cfg, logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fillFixture(t *testing.T) fillOptions {
	t.Helper()
	dir := t.TempDir()
	return fillOptions{
		page:        pageFlags{html: writeTemp(t, dir, "form.html", applicationForm)},
		profilePath: writeTemp(t, dir, "profile.json", `{"firstName":"Ada","lastName":"Lovelace","email":"ada@x.com"}`),
	}
}

func TestFill_WritesFilledDocument(t *testing.T) {
	o := fillFixture(t)
	var stdout, stderr bytes.Buffer

	report, err := o.run(context.Background(), testApp(nil), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Stats.Filled)
	assert.Equal(t, 0, report.Stats.Errors)

	var printed types.FillReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &printed))
	assert.Equal(t, report.ID, printed.ID)

	out := filepath.Join(filepath.Dir(o.page.html), "form.filled.html")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `value="Ada"`)
	assert.Contains(t, string(data), `value="ada@x.com"`)
	assert.Contains(t, stderr.String(), out)
}

func TestFill_DryRunWritesNothing(t *testing.T) {
	o := fillFixture(t)
	o.dryRun = true
	var stdout, stderr bytes.Buffer

	report, err := o.run(context.Background(), testApp(nil), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Stats.Filled)
	assert.Len(t, report.Items, 3)
	_, err = os.Stat(o.outputPath())
	assert.True(t, os.IsNotExist(err))
}

func TestFill_ReportAndOutPaths(t *testing.T) {
	o := fillFixture(t)
	dir := t.TempDir()
	o.outPath = filepath.Join(dir, "out.html")
	o.reportPath = filepath.Join(dir, "report.json")
	var stdout, stderr bytes.Buffer

	_, err := o.run(context.Background(), testApp(nil), &stdout, &stderr)
	require.NoError(t, err)

	assert.Empty(t, stdout.String())
	assert.FileExists(t, o.outPath)
	assert.FileExists(t, o.reportPath)
}

func TestFill_DebugPrintsReportBox(t *testing.T) {
	o := fillFixture(t)
	o.nameLock = "protect"
	a := testApp(nil)
	a.debug = true
	var stdout, stderr bytes.Buffer

	report, err := o.run(context.Background(), a, &stdout, &stderr)
	require.NoError(t, err)

	require.NotNil(t, report.Debug)
	assert.Contains(t, stderr.String(), "FILL REPORT (top)")
	assert.Contains(t, stderr.String(), "NAME LOCK")
}

func TestFill_FlagErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *fillOptions)
		wantErr string
	}{
		{
			name:    "no source",
			mutate:  func(o *fillOptions) { o.page.html = "" },
			wantErr: "exactly one of --html or --url",
		},
		{
			name:    "both sources",
			mutate:  func(o *fillOptions) { o.page.url = "https://jobs.example.com" },
			wantErr: "exactly one of --html or --url",
		},
		{
			name:    "bad name lock",
			mutate:  func(o *fillOptions) { o.nameLock = "ALWAYS" },
			wantErr: "invalid settings",
		},
		{
			name:    "bad type",
			mutate:  func(o *fillOptions) { o.page.types = []string{"shoeSize"} },
			wantErr: "unknown field type",
		},
		{
			name:    "missing profile",
			mutate:  func(o *fillOptions) { o.profilePath = "/nonexistent/profile.json" },
			wantErr: "failed to read profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := fillFixture(t)
			tt.mutate(&o)
			var stdout, stderr bytes.Buffer

			_, err := o.run(context.Background(), testApp(nil), &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFill_SettingsFromConfig(t *testing.T) {
	skip := false
	cfg := &config.Config{
		NameLock:   config.NameLockConfig{Mode: types.NameLockNever},
		FillPolicy: config.FillPolicyConfig{SkipIfNotEmpty: &skip},
	}
	o := fillOptions{dryRun: true}

	s, err := o.settings(testApp(cfg))
	require.NoError(t, err)

	assert.Equal(t, types.NameLockNever, s.NameLock.Mode)
	assert.False(t, s.FillPolicy.SkipIfNotEmpty)
	assert.True(t, s.FillPolicy.DryRun)
}

func TestScan_PrintsMatches(t *testing.T) {
	o := scanOptions{page: pageFlags{html: writeTemp(t, t.TempDir(), "form.html", applicationForm)}}
	var stdout bytes.Buffer

	matches, err := o.run(context.Background(), testApp(nil), &stdout)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.NotEqual(t, "password", m.Candidate.Name)
	}
	assert.Contains(t, stdout.String(), "MATCHED FIELDS")
	assert.Contains(t, stdout.String(), "email")
}

func TestScan_JSONAndTypes(t *testing.T) {
	o := scanOptions{
		page:   pageFlags{html: writeTemp(t, t.TempDir(), "form.html", applicationForm), types: []string{"email"}},
		asJSON: true,
	}
	var stdout bytes.Buffer

	_, err := o.run(context.Background(), testApp(nil), &stdout)
	require.NoError(t, err)

	var got []assign.MatchResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, types.FieldEmail, got[0].FieldType)
}

func TestServe_ListenPort(t *testing.T) {
	tests := []struct {
		name string
		flag int
		cfg  int
		want int
	}{
		{name: "default", want: defaultPort},
		{name: "config", cfg: 9000, want: 9000},
		{name: "flag wins", flag: 9100, cfg: 9000, want: 9100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := serveOptions{port: tt.flag}
			got := o.listenPort(&config.Config{Server: config.ServerConfig{Port: tt.cfg}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig_NoPathUsesEnv(t *testing.T) {
	t.Setenv(config.EnvNameLockMode, "PROTECT")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, types.NameLockProtect, cfg.Settings().NameLock.Mode)

	t.Setenv(config.EnvNameLockMode, "SOMETIMES")
	_, err = loadConfig("")
	assert.Error(t, err)
}
