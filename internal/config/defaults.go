package config

const (
	defaultLogDir              = "~/.local/state/comictag/logs"
	defaultCacheDir            = "~/.cache/comictag"
	defaultStateDir            = "~/.local/state/comictag"
	defaultCatalogSource       = "comicvine"
	defaultCatalogBaseURL      = "https://comicvine.gamespot.com/api"
	defaultRequestsPerSecond   = 1.0
	defaultCatalogTimeout      = 30
	defaultCacheTTLHours       = 24 * 7
	defaultIdentifyThreshold   = 90
	defaultSearchThreshold     = 80
	defaultBadCoverScore       = 16
	defaultBorderCropPercent   = 10
	defaultHashAlgorithm       = "ahash"
	defaultWorkers             = 2
	defaultArchiveTimeout      = 120
	defaultStyle               = "comictag"
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultTagNoteMarker       = "Tagged with comictag"
	maxThreshold               = 100
	maxHashDistance            = 64
	maxBorderCropPercent       = 45
	maxWorkers                 = 16
	defaultConfigRelativePath  = "~/.config/comictag/config.toml"
	projectConfigFileName      = "comictag.toml"
	envCatalogAPIKey           = "COMICVINE_API_KEY"
	dotenvFileName             = ".env"
)

// defaultPublisherFilter lists foreign reprint publishers whose issues shadow
// the originals in catalog results.
var defaultPublisherFilter = []string{
	"Panini Comics",
	"Abril",
	"Planeta DeAgostini",
	"Editorial Televisa",
	"Dino Comics",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
			StateDir: defaultStateDir,
		},
		Catalog: Catalog{
			Source:            defaultCatalogSource,
			BaseURL:           defaultCatalogBaseURL,
			RequestsPerSecond: defaultRequestsPerSecond,
			TimeoutSeconds:    defaultCatalogTimeout,
			CacheEnabled:      true,
			CacheTTLHours:     defaultCacheTTLHours,
		},
		Identifier: Identifier{
			IdentifyThreshold: defaultIdentifyThreshold,
			SearchThreshold:   defaultSearchThreshold,
			BadCoverScore:     defaultBadCoverScore,
			BorderCropPercent: defaultBorderCropPercent,
			HashAlgorithm:     defaultHashAlgorithm,
			PublisherFilter:   append([]string(nil), defaultPublisherFilter...),
			UseYear:           true,
			TagNoteMarker:     defaultTagNoteMarker,
		},
		Transform: Transform{
			AssumeLoneCreditPrimary: false,
			CopyCharactersToTags:    false,
			CopyTeamsToTags:         false,
			CopyLocationsToTags:     false,
			CopyStoryArcsToTags:     false,
			CopyNotesToComments:     false,
			CopyWebLinkToComments:   false,
		},
		AutoTag: AutoTag{
			Workers:               defaultWorkers,
			ArchiveTimeoutSeconds: defaultArchiveTimeout,
			Style:                 defaultStyle,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
