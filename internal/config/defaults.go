package config

const (
	defaultAPIBaseURL       = "http://127.0.0.1:8000/api/v1"
	defaultAPITimeout       = 30
	defaultUserAgent        = "Papri-Go/0.1.0"
	defaultCSRFCookie       = "csrftoken"
	defaultCSRFHeader       = "X-CSRFToken"
	defaultPageSize         = 10
	defaultSearchIntervalMS = 3500
	defaultEditIntervalMS   = 5000
	defaultNotifyTimeout    = 10
	defaultDisplaySeconds   = 5
	defaultHistoryKeep      = 200
	defaultDataDir          = "~/.local/share/papri"
	defaultLogDir           = "~/.local/share/papri/logs"
	defaultHistoryPath      = "~/.local/share/papri/history.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeout,
			UserAgent:      defaultUserAgent,
			CSRFCookie:     defaultCSRFCookie,
			CSRFHeader:     defaultCSRFHeader,
			PageSize:       defaultPageSize,
		},
		Polling: Polling{
			SearchIntervalMS: defaultSearchIntervalMS,
			EditIntervalMS:   defaultEditIntervalMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			DisplaySeconds: defaultDisplaySeconds,
			Errors:         true,
			Completions:    true,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
			Keep:    defaultHistoryKeep,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
