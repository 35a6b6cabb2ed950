package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/boardline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Output:       "text",
		Precision:    1,
		StateBackend: "none",
		Emoji:        "no",
		Color:        "yes",
	}
}

func TestProcessAndValidate(t *testing.T) {
	boardPath := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(boardPath, []byte("items: []\n"), 0o644))

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "valid board path", mutate: func(in *ConfigRawInput) { in.BoardPathStr = boardPath }},
		{name: "missing board", mutate: func(in *ConfigRawInput) { in.BoardPathStr = boardPath + ".missing" }, expectError: "not found"},
		{name: "board is directory", mutate: func(in *ConfigRawInput) { in.BoardPathStr = filepath.Dir(boardPath) }, expectError: "directory"},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: "invalid output format"},
		{name: "parquet needs file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: "--output-file"},
		{name: "invalid precision", mutate: func(in *ConfigRawInput) { in.Precision = 3 }, expectError: "precision"},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: "--color"},
		{name: "invalid scale", mutate: func(in *ConfigRawInput) { in.Scale = "fortnight" }, expectError: "invalid scale"},
		{name: "invalid anchor", mutate: func(in *ConfigRawInput) { in.Anchor = "left" }, expectError: "invalid anchor"},
		{name: "invalid shape", mutate: func(in *ConfigRawInput) { in.Shape = "star" }, expectError: "invalid shape"},
		{name: "invalid item size", mutate: func(in *ConfigRawInput) { in.ItemSize = -4 }, expectError: "item-size"},
		{name: "invalid now", mutate: func(in *ConfigRawInput) { in.Now = "someday" }, expectError: "--now"},
		{name: "invalid container", mutate: func(in *ConfigRawInput) { in.ContainerHeight = -1 }, expectError: "container-height"},
		{name: "invalid state backend", mutate: func(in *ConfigRawInput) { in.StateBackend = "redis" }, expectError: "invalid state backend"},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.StateBackend = "mysql" }, expectError: "db-connect is required"},
		{name: "negative tuning", mutate: func(in *ConfigRawInput) { in.Layout.Stagger = ptr(-1) }, expectError: "layout.stagger"},
		{name: "alternate ratio above one", mutate: func(in *ConfigRawInput) { in.Layout.AlternateRatio = ptr(1.5) }, expectError: "alternate_ratio"},
		{name: "bad debounce", mutate: func(in *ConfigRawInput) { in.Layout.SaveDebounce = "soon" }, expectError: "save_debounce"},
		{
			name: "unknown limits policy",
			mutate: func(in *ConfigRawInput) {
				in.Layout.Limits = map[string]PolicyLimitsRaw{"sideways": {}}
			},
			expectError: "layout.limits",
		},
		{
			name: "shared sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.StateBackend = "sqlite"
				in.HistoryBackend = "sqlite"
			},
			expectError: "different SQLite database files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				assert.ErrorContains(t, err, tt.expectError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.DefaultSettings(), cfg.Settings)
	assert.Equal(t, schema.Geometry{
		ContainerWidthPx:  DefaultContainerWidthPx,
		ContainerHeightPx: DefaultContainerHeightPx,
		ItemWidthPx:       schema.DefaultItemSizePx,
		ItemHeightPx:      schema.DefaultItemSizePx,
	}, cfg.Geometry)
	assert.Equal(t, schema.DefaultTuning(), cfg.Tuning)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.NoneBackend, cfg.StateBackend)
	assert.Empty(t, cfg.HistoryBackend)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.UseEmojis)
	assert.Empty(t, cfg.BoardPath)
	assert.True(t, cfg.Now.IsZero())
}

func TestProcessAndValidateSettings(t *testing.T) {
	input := validInput()
	input.DateColumn = " due "
	input.Scale = "WEEK"
	input.Anchor = "alternate"
	input.Shape = "diamond"
	input.ItemSize = 48
	input.ShowDates = "no"
	input.ShowLegend = true
	input.ItemHeight = 20
	input.Now = "2025-03-01"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.Settings{
		DateColumn:  "due",
		Granularity: schema.WeekScale,
		Anchor:      schema.AlternateAnchor,
		Shape:       schema.DiamondShape,
		ItemSizePx:  48,
		ShowDates:   false,
		ShowLegend:  true,
	}, cfg.Settings)
	assert.Equal(t, 48.0, cfg.Geometry.ItemWidthPx)
	assert.Equal(t, 20.0, cfg.Geometry.ItemHeightPx)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now, cfg.Now)
	assert.Equal(t, now, cfg.Clock()())
}

func TestProcessLayoutTuning(t *testing.T) {
	input := validInput()
	input.Layout = LayoutRawInput{
		BaseOffset:   ptr(30),
		Stagger:      ptr(0),
		SaveDebounce: "1s",
		Limits: map[string]PolicyLimitsRaw{
			"Center": {Above: &SideLimitsRaw{MaxUp: ptr(90)}},
		},
	}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, 30.0, cfg.Tuning.BaseOffsetPx)
	assert.Equal(t, 0.0, cfg.Tuning.StaggerPx)
	assert.Equal(t, float64(schema.DefaultSlotSpacingPx), cfg.Tuning.SlotSpacingPx)
	assert.Equal(t, time.Second, cfg.Tuning.SaveDebounce)

	center := cfg.Tuning.LimitsFor(schema.CenterAnchor)
	assert.Equal(t, 90.0, center.Above.MaxUpPx)
	assert.Equal(t, 20.0, center.Above.MaxDownPx)
	assert.Equal(t, schema.DefaultPolicyLimits()[schema.CenterAnchor].Below, center.Below)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		ok      bool
	}{
		{schema.SQLiteBackend, "", true},
		{schema.NoneBackend, "", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/boardline", true},
		{schema.MySQLBackend, "user:pass@localhost/boardline", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)", false},
		{schema.PostgreSQLBackend, "host=localhost dbname=boardline", true},
		{schema.PostgreSQLBackend, "dbname=boardline", false},
		{schema.PostgreSQLBackend, "host=localhost", false},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.ok {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	clone := cfg.Clone()
	clone.Tuning.Limits[schema.AboveAnchor] = schema.PolicyLimits{}
	assert.NotEqual(t, cfg.Tuning.Limits[schema.AboveAnchor], clone.Tuning.Limits[schema.AboveAnchor])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "out/boardline"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "out/boardline", profile.Prefix)
}
