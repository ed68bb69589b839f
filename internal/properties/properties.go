package properties

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}
func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
func DiscordWarnNotificationUrl() string {
	return os.Getenv("DISCORD_WARN_NOTIFICATION_URL")
}

func EarthdataClientID() string {
	return os.Getenv("EARTHDATA_CLIENT_ID")
}
func EarthdataClientSecret() string {
	return os.Getenv("EARTHDATA_CLIENT_SECRET")
}
func EarthdataTokenURL() string {
	return os.Getenv("EARTHDATA_TOKEN_URL")
}

// Config holds every knob for one derivative run. It is filled once at
// startup and never mutated afterwards.
type Config struct {
	StartYear int
	EndYear   int

	EdgePaddingDays int
	GamKnots        int
	// Knots removed from the basis for the first and last year of the
	// range, which lack padding on one side.
	BoundaryKnotDrop int
	PosteriorSims    int
	AlphaLevel       float64
	MinObservations  int

	Cores                int
	CheckpointInterval   int
	ResumeFromCheckpoint bool

	TimeseriesPath string
	OutputPath     string
}

func DefaultConfig() Config {
	return Config{
		StartYear:            2013,
		EndYear:              2023,
		EdgePaddingDays:      31,
		GamKnots:             12,
		BoundaryKnotDrop:     1,
		PosteriorSims:        1000,
		AlphaLevel:           0.05,
		MinObservations:      15,
		Cores:                runtime.NumCPU(),
		CheckpointInterval:   100,
		ResumeFromCheckpoint: true,
		TimeseriesPath:       RootPath() + "/data/timeseries/ndvi_long.csv",
		OutputPath:           RootPath() + "/data/result/ndvi_derivatives.csv",
	}
}

func (c Config) Validate() error {
	if c.StartYear > c.EndYear {
		return fmt.Errorf("invalid year range %d-%d", c.StartYear, c.EndYear)
	}
	if c.GamKnots < 4 {
		return fmt.Errorf("gam knots must be at least 4, got %d", c.GamKnots)
	}
	if c.GamKnots-c.BoundaryKnotDrop < 4 {
		return fmt.Errorf("boundary knot drop %d leaves fewer than 4 knots", c.BoundaryKnotDrop)
	}
	if c.PosteriorSims < 2 {
		return fmt.Errorf("posterior sims must be at least 2, got %d", c.PosteriorSims)
	}
	if c.AlphaLevel <= 0 || c.AlphaLevel >= 1 {
		return fmt.Errorf("alpha level must be in (0,1), got %f", c.AlphaLevel)
	}
	if c.MinObservations < 1 {
		return fmt.Errorf("min observations must be positive, got %d", c.MinObservations)
	}
	if c.Cores < 1 {
		return fmt.Errorf("cores must be positive, got %d", c.Cores)
	}
	if c.CheckpointInterval < 1 {
		return fmt.Errorf("checkpoint interval must be positive, got %d", c.CheckpointInterval)
	}
	if c.TimeseriesPath == "" || c.OutputPath == "" {
		return fmt.Errorf("timeseries and output paths must be set")
	}
	return nil
}

// BasisDim returns the spline basis dimension for a target year, reduced for
// the boundary years of the configured range.
func (c Config) BasisDim(year int) int {
	if year == c.StartYear || year == c.EndYear {
		return c.GamKnots - c.BoundaryKnotDrop
	}
	return c.GamKnots
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// ConfigFromEnv starts from the defaults and overrides whatever the
// environment provides.
func ConfigFromEnv() Config {
	c := DefaultConfig()
	c.StartYear = envInt("TARGET_YEAR_START", c.StartYear)
	c.EndYear = envInt("TARGET_YEAR_END", c.EndYear)
	c.EdgePaddingDays = envInt("EDGE_PADDING_DAYS", c.EdgePaddingDays)
	c.GamKnots = envInt("GAM_KNOTS", c.GamKnots)
	c.BoundaryKnotDrop = envInt("BOUNDARY_KNOT_DROP", c.BoundaryKnotDrop)
	c.PosteriorSims = envInt("N_POSTERIOR_SIMS", c.PosteriorSims)
	c.AlphaLevel = envFloat("ALPHA_LEVEL", c.AlphaLevel)
	c.MinObservations = envInt("MIN_OBSERVATIONS", c.MinObservations)
	c.Cores = envInt("N_CORES", c.Cores)
	c.CheckpointInterval = envInt("CHECKPOINT_INTERVAL", c.CheckpointInterval)
	if v := os.Getenv("RESUME_FROM_CHECKPOINT"); v != "" {
		c.ResumeFromCheckpoint = v != "false" && v != "0"
	}
	if v := os.Getenv("TIMESERIES_PATH"); v != "" {
		c.TimeseriesPath = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		c.OutputPath = v
	}
	return c
}
