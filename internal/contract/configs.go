package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/boardline/schema"
)

// Default values for configuration.
const (
	DefaultContainerWidthPx  = 1200
	DefaultContainerHeightPx = 400
	DefaultPrecision         = 1
	MaxContainerPx           = 20000
	MaxItemSizePx            = 512
)

// DateFormat is the date representation used by flags and output.
const DateFormat = schema.DateLayout

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// SideLimitsRaw holds optional drag limit overrides for one side of the anchor line.
type SideLimitsRaw struct {
	MaxUp   *float64 `mapstructure:"max_up"`
	MaxDown *float64 `mapstructure:"max_down"`
}

// PolicyLimitsRaw holds optional drag limit overrides for one anchor policy.
type PolicyLimitsRaw struct {
	Above *SideLimitsRaw `mapstructure:"above"`
	Below *SideLimitsRaw `mapstructure:"below"`
}

// LayoutRawInput holds the layout tuning section of the YAML config file.
// Use float64 pointers for optional fields.
type LayoutRawInput struct {
	BaseOffset     *float64 `mapstructure:"base_offset"`
	SlotSpacing    *float64 `mapstructure:"slot_spacing"`
	MaxExcursion   *float64 `mapstructure:"max_excursion"`
	AnchorInset    *float64 `mapstructure:"anchor_inset"`
	AlternateRatio *float64 `mapstructure:"alternate_ratio"`
	EdgeBuffer     *float64 `mapstructure:"edge_buffer"`
	EdgeInsetPct   *float64 `mapstructure:"edge_inset_pct"`
	Stagger        *float64 `mapstructure:"stagger"`
	MinItemWidth   *float64 `mapstructure:"min_item_width"`
	MinItemHeight  *float64 `mapstructure:"min_item_height"`
	SaveDebounce   string   `mapstructure:"save_debounce"`

	Limits map[string]PolicyLimitsRaw `mapstructure:"limits"`
}

// Config holds the runtime configuration for a boardline run.
// This struct remains the "final, validated" config.
type Config struct {
	BoardPath string
	Settings  schema.Settings
	Geometry  schema.Geometry
	Tuning    schema.Tuning

	// Now pins "today" for boards without visible items (zero = wall clock)
	Now time.Time

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)

	StateBackend   schema.DatabaseBackend
	StateDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
	Verbose   bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	BoardPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	DateColumn       string  `mapstructure:"date-column"`
	Scale            string  `mapstructure:"scale"`
	Anchor           string  `mapstructure:"anchor"`
	Shape            string  `mapstructure:"shape"`
	ItemSize         float64 `mapstructure:"item-size"`
	ShowDates        string  `mapstructure:"show-dates"`
	ShowLegend       bool    `mapstructure:"show-legend"`
	ContainerWidth   float64 `mapstructure:"container-width"`
	ContainerHeight  float64 `mapstructure:"container-height"`
	ItemWidth        float64 `mapstructure:"item-width"`
	ItemHeight       float64 `mapstructure:"item-height"`
	Now              string  `mapstructure:"now"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Precision        int     `mapstructure:"precision"`
	Width            int     `mapstructure:"width"`
	StateBackend     string  `mapstructure:"state-backend"`
	StateDBConnect   string  `mapstructure:"state-db-connect"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`
	Emoji            string  `mapstructure:"emoji"`
	Color            string  `mapstructure:"color"`
	Verbose          bool    `mapstructure:"verbose"`

	// --- Layout tuning from config file ---
	Layout LayoutRawInput `mapstructure:"layout"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Tuning.Limits != nil {
		clone.Tuning.Limits = maps.Clone(c.Tuning.Limits)
	}
	return &clone
}

// Clock returns the clock a board should use for this run.
func (c *Config) Clock() func() time.Time {
	if c.Now.IsZero() {
		return time.Now
	}
	now := c.Now
	return func() time.Time { return now }
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSettings(cfg, input); err != nil {
		return err
	}
	if err := processGeometry(cfg, input); err != nil {
		return err
	}
	if err := processLayoutTuning(cfg, input); err != nil {
		return err
	}
	if err := resolveBoardPath(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates state and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- State Backend Validation ---
	cfg.StateBackend = schema.DatabaseBackend(strings.ToLower(input.StateBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StateBackend]; !ok {
		return fmt.Errorf("invalid state backend '%s'. must be sqlite, mysql, postgresql, none", input.StateBackend)
	}
	cfg.StateDBConnect = input.StateDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StateBackend, cfg.StateDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// SQLite paths are resolved to catch default path conflicts
	if cfg.StateBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		statePath := cfg.StateDBConnect
		if statePath == "" {
			statePath = GetStateDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if statePath == historyPath {
			return fmt.Errorf("state and history storage must use different SQLite database files. Both resolve to %q", statePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output and backend fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, svg, preview", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.Now = time.Time{}
	if input.Now != "" {
		t, err := ParseDateValue(input.Now, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --now value %q: %w", input.Now, err)
		}
		cfg.Now = t
	}

	return validateBackendConfigs(cfg, input)
}

// processSettings validates the board settings.
func processSettings(cfg *Config, input *ConfigRawInput) error {
	s := schema.DefaultSettings()
	s.DateColumn = strings.TrimSpace(input.DateColumn)
	s.ShowLegend = input.ShowLegend

	if input.Scale != "" {
		s.Granularity = schema.Granularity(strings.ToLower(input.Scale))
		if _, ok := schema.ValidGranularities[s.Granularity]; !ok {
			return fmt.Errorf("invalid scale '%s'. must be day, week, month, quarter, year, none", input.Scale)
		}
	}
	if input.Anchor != "" {
		s.Anchor = schema.AnchorPolicy(strings.ToLower(input.Anchor))
		if _, ok := schema.ValidAnchorPolicies[s.Anchor]; !ok {
			return fmt.Errorf("invalid anchor '%s'. must be above, below, alternate, center", input.Anchor)
		}
	}
	if input.Shape != "" {
		s.Shape = schema.ItemShape(strings.ToLower(input.Shape))
		if _, ok := schema.ValidItemShapes[s.Shape]; !ok {
			return fmt.Errorf("invalid shape '%s'. must be circle, square, diamond, triangle", input.Shape)
		}
	}
	if input.ItemSize != 0 {
		if input.ItemSize < 0 || input.ItemSize > MaxItemSizePx {
			return fmt.Errorf("item-size must be between 1 and %d (received %g)", MaxItemSizePx, input.ItemSize)
		}
		s.ItemSizePx = input.ItemSize
	}
	if input.ShowDates != "" {
		show, err := ParseBoolString(input.ShowDates)
		if err != nil {
			return fmt.Errorf("invalid --show-dates value: %w", err)
		}
		s.ShowDates = show
	}

	cfg.Settings = s
	return nil
}

// processGeometry validates the container and item card sizes.
// Item cards default to the configured item size.
func processGeometry(cfg *Config, input *ConfigRawInput) error {
	g := schema.Geometry{
		ContainerWidthPx:  input.ContainerWidth,
		ContainerHeightPx: input.ContainerHeight,
		ItemWidthPx:       input.ItemWidth,
		ItemHeightPx:      input.ItemHeight,
	}
	if g.ContainerWidthPx == 0 {
		g.ContainerWidthPx = DefaultContainerWidthPx
	}
	if g.ContainerHeightPx == 0 {
		g.ContainerHeightPx = DefaultContainerHeightPx
	}
	if g.ItemWidthPx == 0 {
		g.ItemWidthPx = cfg.Settings.ItemSizePx
	}
	if g.ItemHeightPx == 0 {
		g.ItemHeightPx = cfg.Settings.ItemSizePx
	}

	for name, v := range map[string]float64{
		"container-width":  g.ContainerWidthPx,
		"container-height": g.ContainerHeightPx,
	} {
		if v < 0 || v > MaxContainerPx {
			return fmt.Errorf("%s must be between 0 and %d (received %g)", name, MaxContainerPx, v)
		}
	}
	if g.ItemWidthPx < 0 || g.ItemHeightPx < 0 {
		return fmt.Errorf("item sizes cannot be negative (received %gx%g)", g.ItemWidthPx, g.ItemHeightPx)
	}

	cfg.Geometry = g
	return nil
}

// processLayoutTuning overlays the layout section of the config file on the default tuning.
func processLayoutTuning(cfg *Config, input *ConfigRawInput) error {
	t := schema.DefaultTuning()
	raw := input.Layout

	overrides := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"base_offset", raw.BaseOffset, &t.BaseOffsetPx},
		{"slot_spacing", raw.SlotSpacing, &t.SlotSpacingPx},
		{"max_excursion", raw.MaxExcursion, &t.MaxExcursionPx},
		{"anchor_inset", raw.AnchorInset, &t.AnchorInsetPx},
		{"alternate_ratio", raw.AlternateRatio, &t.AlternateLineRatio},
		{"edge_buffer", raw.EdgeBuffer, &t.EdgeBufferPx},
		{"edge_inset_pct", raw.EdgeInsetPct, &t.EdgeInsetPct},
		{"stagger", raw.Stagger, &t.StaggerPx},
		{"min_item_width", raw.MinItemWidth, &t.MinItemWidthPx},
		{"min_item_height", raw.MinItemHeight, &t.MinItemHeightPx},
	}
	for _, o := range overrides {
		if o.src == nil {
			continue
		}
		if *o.src < 0 {
			return fmt.Errorf("layout.%s cannot be negative (received %g)", o.name, *o.src)
		}
		*o.dst = *o.src
	}
	if t.AlternateLineRatio > 1 {
		return fmt.Errorf("layout.alternate_ratio must be between 0 and 1 (received %g)", t.AlternateLineRatio)
	}
	if t.EdgeInsetPct >= 50 {
		return fmt.Errorf("layout.edge_inset_pct must be below 50 (received %g)", t.EdgeInsetPct)
	}

	if raw.SaveDebounce != "" {
		d, err := time.ParseDuration(raw.SaveDebounce)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid layout.save_debounce %q", raw.SaveDebounce)
		}
		t.SaveDebounce = d
	}

	for name, limits := range raw.Limits {
		policy := schema.AnchorPolicy(strings.ToLower(name))
		if _, ok := schema.ValidAnchorPolicies[policy]; !ok {
			return fmt.Errorf("invalid anchor policy '%s' in layout.limits", name)
		}
		merged := t.LimitsFor(policy)
		if err := mergeSideLimits(&merged.Above, limits.Above); err != nil {
			return fmt.Errorf("layout.limits.%s.above: %w", name, err)
		}
		if err := mergeSideLimits(&merged.Below, limits.Below); err != nil {
			return fmt.Errorf("layout.limits.%s.below: %w", name, err)
		}
		t.Limits[policy] = merged
	}

	cfg.Tuning = t
	return nil
}

func mergeSideLimits(dst *schema.SideLimits, raw *SideLimitsRaw) error {
	if raw == nil {
		return nil
	}
	if raw.MaxUp != nil {
		if *raw.MaxUp < 0 {
			return fmt.Errorf("max_up cannot be negative")
		}
		dst.MaxUpPx = *raw.MaxUp
	}
	if raw.MaxDown != nil {
		if *raw.MaxDown < 0 {
			return fmt.Errorf("max_down cannot be negative")
		}
		dst.MaxDownPx = *raw.MaxDown
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveBoardPath makes the board file path absolute and checks that it exists.
// Commands that do not read a board leave the path empty.
func resolveBoardPath(cfg *Config, input *ConfigRawInput) error {
	cfg.BoardPath = ""
	if input.BoardPathStr == "" {
		return nil
	}
	abs, err := filepath.Abs(input.BoardPathStr)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("board file %q not found: %w", input.BoardPathStr, err)
	}
	if info.IsDir() {
		return fmt.Errorf("board path %q is a directory, expected a YAML or JSON board file", input.BoardPathStr)
	}
	cfg.BoardPath = filepath.Clean(abs)
	return nil
}
