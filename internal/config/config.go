package config

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrMissingKey is the root of all missing-configuration errors. Callers can
// match it with eris.Is to distinguish config problems from runtime failures.
var ErrMissingKey = eris.New("config: required key missing")

// Config holds the full application configuration.
type Config struct {
	TargetCRS            string    `yaml:"target_crs" mapstructure:"target_crs"`
	TargetScale          float64   `yaml:"target_scale" mapstructure:"target_scale"`
	StudyYears           []int     `yaml:"study_years" mapstructure:"study_years"`
	HotSeasonMonths      []int     `yaml:"hot_season_months" mapstructure:"hot_season_months"`
	BandNames            []string  `yaml:"band_names" mapstructure:"band_names"`
	RasterName           string    `yaml:"raster_name" mapstructure:"raster_name"`
	DataDir              string    `yaml:"data_dir" mapstructure:"data_dir"`
	CloudThreshold       float64   `yaml:"cloud_threshold" mapstructure:"cloud_threshold"`
	HotspotStdMultiplier float64   `yaml:"hotspot_std_multiplier" mapstructure:"hotspot_std_multiplier"`
	LSTValidRange        []float64 `yaml:"lst_valid_range" mapstructure:"lst_valid_range"`
	SentinelYear         int       `yaml:"sentinel_year" mapstructure:"sentinel_year"`
	WorldcoverYear       int       `yaml:"worldcover_year" mapstructure:"worldcover_year"`

	Boundary  BoundaryConfig  `yaml:"boundary" mapstructure:"boundary"`
	Sentinel  SentinelConfig  `yaml:"sentinel" mapstructure:"sentinel"`
	Water     WaterConfig     `yaml:"water" mapstructure:"water"`
	Roads     RoadsConfig     `yaml:"roads" mapstructure:"roads"`
	LandCover LandCoverConfig `yaml:"land_cover" mapstructure:"land_cover"`
	Distance  DistanceConfig  `yaml:"distance" mapstructure:"distance"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// BoundaryConfig configures AOI resolution: a remote GeoJSON asset with a
// local shapefile fallback.
type BoundaryConfig struct {
	AssetURL      string `yaml:"asset_url" mapstructure:"asset_url"`
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	// Retries is the number of additional attempts against the remote asset
	// before falling back to the shapefile. 0 means fall back immediately on
	// the first failure. Only transient errors are retried.
	Retries int `yaml:"retries" mapstructure:"retries"`
}

// SentinelConfig configures the spectral-index source filtering.
type SentinelConfig struct {
	CloudThreshold float64 `yaml:"cloud_threshold" mapstructure:"cloud_threshold"`
}

// WaterConfig configures the surface-water presence mask.
type WaterConfig struct {
	// OccurrenceThreshold is the minimum occurrence frequency (percent) for
	// a pixel to count as water.
	OccurrenceThreshold float64 `yaml:"occurrence_threshold" mapstructure:"occurrence_threshold"`
}

// RoadsConfig configures the road network source.
type RoadsConfig struct {
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
}

// LandCoverConfig configures the land-cover density engine.
type LandCoverConfig struct {
	// KernelRadiusMeters is the radius of the circular mean filter.
	KernelRadiusMeters float64 `yaml:"kernel_radius_meters" mapstructure:"kernel_radius_meters"`
}

// DistanceConfig configures the distance-transform engines.
type DistanceConfig struct {
	// NeighborhoodPixels caps the distance-transform search radius. Pixels
	// farther than this from any presence cell report the capped distance,
	// which callers treat as "far enough" rather than exact.
	NeighborhoodPixels int `yaml:"neighborhood_pixels" mapstructure:"neighborhood_pixels"`
}

// CatalogConfig configures the local scene catalog.
type CatalogConfig struct {
	IndexPath      string  `yaml:"index_path" mapstructure:"index_path"`
	LandsatDir     string  `yaml:"landsat_dir" mapstructure:"landsat_dir"`
	SentinelDir    string  `yaml:"sentinel_dir" mapstructure:"sentinel_dir"`
	DEMDir         string  `yaml:"dem_dir" mapstructure:"dem_dir"`
	WaterPath      string  `yaml:"water_path" mapstructure:"water_path"`
	WorldCoverPath string  `yaml:"worldcover_path" mapstructure:"worldcover_path"`
	RatePerSecond  float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// StoreConfig configures the optional Postgres sink for pixel tables.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// ServerConfig configures the diagnostics server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RasterPath returns the path of the exported feature stack.
func (c *Config) RasterPath() string {
	return filepath.Join(c.DataDir, c.RasterName+".tif")
}

// requiredKeys must be present in the config file or environment; there is
// no sensible default for any of them.
var requiredKeys = []string{
	"target_crs",
	"target_scale",
	"study_years",
	"hot_season_months",
	"band_names",
	"raster_name",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment
	v.SetEnvPrefix("UHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "data/processed")
	v.SetDefault("cloud_threshold", 20.0)
	v.SetDefault("hotspot_std_multiplier", 1.0)
	v.SetDefault("lst_valid_range", []float64{10, 60})
	v.SetDefault("sentinel.cloud_threshold", 30.0)
	v.SetDefault("water.occurrence_threshold", 70.0)
	v.SetDefault("land_cover.kernel_radius_meters", 90.0)
	v.SetDefault("distance.neighborhood_pixels", 500)
	v.SetDefault("boundary.retries", 0)
	v.SetDefault("catalog.index_path", "data/catalog.db")
	v.SetDefault("catalog.rate_per_second", 2.0)
	v.SetDefault("store.table", "pixel_features")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional; env can carry everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, eris.Wrapf(ErrMissingKey, "config: %s", key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if len(c.LSTValidRange) != 2 || c.LSTValidRange[0] >= c.LSTValidRange[1] {
		return eris.Errorf("config: lst_valid_range must be [low, high], got %v", c.LSTValidRange)
	}
	if c.TargetScale <= 0 {
		return eris.Errorf("config: target_scale must be positive, got %v", c.TargetScale)
	}
	if len(c.BandNames) == 0 {
		return eris.Wrap(ErrMissingKey, "config: band_names")
	}
	seen := make(map[string]bool, len(c.BandNames))
	for _, name := range c.BandNames {
		if seen[name] {
			return eris.Errorf("config: duplicate band name %q", name)
		}
		seen[name] = true
	}
	for _, m := range c.HotSeasonMonths {
		if m < 1 || m > 12 {
			return eris.Errorf("config: hot_season_months contains invalid month %d", m)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
