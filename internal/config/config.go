package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"styleaudit/internal/log"
)

type Config struct {
	BaseURL         string        `mapstructure:"BASE_URL"`
	PagesFile       string        `mapstructure:"PAGES_FILE"`
	TokensFile      string        `mapstructure:"TOKENS_FILE"`
	Headless        bool          `mapstructure:"HEADLESS"`
	ChromeBin       string        `mapstructure:"CHROME_BIN"`
	ChromeURL       string        `mapstructure:"CHROME_URL"`
	ColorScheme     string        `mapstructure:"COLOR_SCHEME"`
	ReportPath      string        `mapstructure:"REPORT_PATH"`
	ReportFormat    string        `mapstructure:"REPORT_FORMAT"`
	JSONReportPath  string        `mapstructure:"JSON_REPORT_PATH"`
	ScreenshotDir   string        `mapstructure:"SCREENSHOT_DIR"`
	RootSelector    string        `mapstructure:"ROOT_SELECTOR"`
	Filter          string        `mapstructure:"FILTER"`
	MinContrast     float64       `mapstructure:"MIN_CONTRAST"`
	NavTimeout      time.Duration `mapstructure:"NAV_TIMEOUT"`
	ReadyTimeout    time.Duration `mapstructure:"READY_TIMEOUT"`
	SettleDelay     time.Duration `mapstructure:"SETTLE_DELAY"`
	RunTimeout      time.Duration `mapstructure:"RUN_TIMEOUT"`
	PageRate        float64       `mapstructure:"PAGE_RATE"`
	FailOnPageError bool          `mapstructure:"FAIL_ON_PAGE_ERROR"`
	HistoryDB       string        `mapstructure:"HISTORY_DB"`
	MetricsFile     string        `mapstructure:"METRICS_FILE"`

	ListenAddr    string        `mapstructure:"LISTEN_ADDR"`
	MetricsAddr   string        `mapstructure:"METRICS_ADDR"`
	PprofAddr     string        `mapstructure:"PPROF_ADDR"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	BasicAuthUser string        `mapstructure:"BASIC_AUTH_USER"`
	BasicAuthPass string        `mapstructure:"BASIC_AUTH_PASS"`
}

var AppConfig *Config

// flagKeys maps command-line flags to config keys. A flag set on the
// command line wins over the environment and .env file.
var flagKeys = map[string]string{
	"base-url":           BASE_URL,
	"pages":              PAGES_FILE,
	"tokens":             TOKENS_FILE,
	"headless":           HEADLESS,
	"chrome-bin":         CHROME_BIN,
	"chrome-url":         CHROME_URL,
	"color-scheme":       COLOR_SCHEME,
	"out":                REPORT_PATH,
	"format":             REPORT_FORMAT,
	"json-out":           JSON_REPORT_PATH,
	"screenshots":        SCREENSHOT_DIR,
	"root":               ROOT_SELECTOR,
	"filter":             FILTER,
	"min-contrast":       MIN_CONTRAST,
	"nav-timeout":        NAV_TIMEOUT,
	"ready-timeout":      READY_TIMEOUT,
	"settle-delay":       SETTLE_DELAY,
	"run-timeout":        RUN_TIMEOUT,
	"page-rate":          PAGE_RATE,
	"fail-on-page-error": FAIL_ON_PAGE_ERROR,
	"history-db":         HISTORY_DB,
	"metrics-file":       METRICS_FILE,
	"listen":             LISTEN_ADDR,
	"metrics-listen":     METRICS_ADDR,
	"pprof":              PPROF_ADDR,
	"cache-ttl":          CACHE_TTL,
}

// Load reads .env (optional), the environment and any flags in fs, in
// increasing order of precedence.
func Load(envFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		log.Logger.Debug("env file not read", zap.String("file", envFile), zap.Error(err))
	}

	v.AutomaticEnv()
	setDefaults(v)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadEnv loads the global AppConfig, exiting on failure.
func LoadEnv(fs *pflag.FlagSet) {
	cfg, err := Load(".env", fs)
	if err != nil {
		log.Logger.Fatal("Failed to load config", zap.Error(err))
	}
	AppConfig = cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(BASE_URL, "http://localhost:5173")
	v.SetDefault(PAGES_FILE, "")
	v.SetDefault(TOKENS_FILE, "")
	v.SetDefault(HEADLESS, true)
	v.SetDefault(CHROME_BIN, "")
	v.SetDefault(CHROME_URL, "")
	v.SetDefault(COLOR_SCHEME, "")
	v.SetDefault(REPORT_PATH, "style-audit-report.md")
	v.SetDefault(REPORT_FORMAT, "markdown")
	v.SetDefault(JSON_REPORT_PATH, "")
	v.SetDefault(SCREENSHOT_DIR, "screenshots")
	v.SetDefault(ROOT_SELECTOR, "body")
	v.SetDefault(FILTER, "all")
	v.SetDefault(MIN_CONTRAST, 0.0)
	v.SetDefault(NAV_TIMEOUT, 30*time.Second)
	v.SetDefault(READY_TIMEOUT, 10*time.Second)
	v.SetDefault(SETTLE_DELAY, 500*time.Millisecond)
	v.SetDefault(RUN_TIMEOUT, 10*time.Minute)
	v.SetDefault(PAGE_RATE, 2.0)
	v.SetDefault(FAIL_ON_PAGE_ERROR, false)
	v.SetDefault(HISTORY_DB, "")
	v.SetDefault(METRICS_FILE, "")
	v.SetDefault(LISTEN_ADDR, ":8080")
	v.SetDefault(METRICS_ADDR, ":8081")
	v.SetDefault(PPROF_ADDR, "")
	v.SetDefault(CACHE_TTL, 15*time.Minute)
	v.SetDefault(BASIC_AUTH_USER, "")
	v.SetDefault(BASIC_AUTH_PASS, "")
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the settings shared by every browser-driven command.
func (c *Config) Validate() error {
	switch {
	case c.NavTimeout <= 0, c.ReadyTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	case c.SettleDelay < 0:
		return fmt.Errorf("%w: settle delay must not be negative", ErrInvalidConfig)
	case c.MinContrast < 0 || c.MinContrast > 21:
		return fmt.Errorf("%w: min contrast must be within 0-21", ErrInvalidConfig)
	case c.ColorScheme != "" && c.ColorScheme != "light" && c.ColorScheme != "dark":
		return fmt.Errorf("%w: color scheme must be light or dark", ErrInvalidConfig)
	}
	return nil
}
