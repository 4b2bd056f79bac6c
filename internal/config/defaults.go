package config

const (
	defaultConfigPath          = "~/.config/cinefile/config.toml"
	defaultDataDir             = "~/.local/share/cinefile"
	defaultLogDir              = "~/.local/share/cinefile/logs"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL    = "https://image.tmdb.org/t/p/w342"
	defaultTMDBLanguage        = "en-US"
	defaultTMDBRequestTimeout  = 10
	defaultTMDBMinRequestMS    = 50
	defaultTMDBSearchCacheTTL  = 600
	defaultEnrichmentBatchSize = 5
	defaultTopListDebounceMS   = 250
	defaultSyncBatchSize       = 500
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	syncDatabaseURLEnv         = "CINEFILE_SYNC_DATABASE_URL"
	tmdbAPIKeyEnv              = "TMDB_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:               defaultTMDBBaseURL,
			ImageBaseURL:          defaultTMDBImageBaseURL,
			Language:              defaultTMDBLanguage,
			RequestTimeoutSeconds: defaultTMDBRequestTimeout,
			MinRequestIntervalMS:  defaultTMDBMinRequestMS,
			SearchCacheTTLSeconds: defaultTMDBSearchCacheTTL,
		},
		Seed: Seed{
			Enabled:      true,
			FetchDetails: true,
		},
		Enrichment: Enrichment{
			BatchSize: defaultEnrichmentBatchSize,
		},
		TopList: TopList{
			Enabled:    true,
			DebounceMS: defaultTopListDebounceMS,
		},
		Sync: Sync{
			BatchSize: defaultSyncBatchSize,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
