package config

const (
	BASE_URL           = "BASE_URL"
	PAGES_FILE         = "PAGES_FILE"
	TOKENS_FILE        = "TOKENS_FILE"
	HEADLESS           = "HEADLESS"
	CHROME_BIN         = "CHROME_BIN"
	CHROME_URL         = "CHROME_URL"
	COLOR_SCHEME       = "COLOR_SCHEME"
	REPORT_PATH        = "REPORT_PATH"
	REPORT_FORMAT      = "REPORT_FORMAT"
	JSON_REPORT_PATH   = "JSON_REPORT_PATH"
	SCREENSHOT_DIR     = "SCREENSHOT_DIR"
	ROOT_SELECTOR      = "ROOT_SELECTOR"
	FILTER             = "FILTER"
	MIN_CONTRAST       = "MIN_CONTRAST"
	NAV_TIMEOUT        = "NAV_TIMEOUT"
	READY_TIMEOUT      = "READY_TIMEOUT"
	SETTLE_DELAY       = "SETTLE_DELAY"
	RUN_TIMEOUT        = "RUN_TIMEOUT"
	PAGE_RATE          = "PAGE_RATE"
	FAIL_ON_PAGE_ERROR = "FAIL_ON_PAGE_ERROR"
	HISTORY_DB         = "HISTORY_DB"
	METRICS_FILE       = "METRICS_FILE"
	LISTEN_ADDR        = "LISTEN_ADDR"
	METRICS_ADDR       = "METRICS_ADDR"
	PPROF_ADDR         = "PPROF_ADDR"
	CACHE_TTL          = "CACHE_TTL"
	BASIC_AUTH_USER    = "BASIC_AUTH_USER"
	BASIC_AUTH_PASS    = "BASIC_AUTH_PASS"
)
