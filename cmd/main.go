package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/drought-guardian/hls-drought-monitor/internal/grid"
	"github.com/drought-guardian/hls-drought-monitor/internal/hls"
	"github.com/drought-guardian/hls-drought-monitor/internal/notification"
	"github.com/drought-guardian/hls-drought-monitor/internal/phenology"
	"github.com/drought-guardian/hls-drought-monitor/internal/properties"
	"github.com/drought-guardian/hls-drought-monitor/internal/series"
	"github.com/drought-guardian/hls-drought-monitor/output"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func printBanner() {
	figure1 := figure.NewFigure("Drought", "isometric1", true)
	figure2 := figure.NewFigure("Guardian", "isometric1", true)
	color.Cyan(figure1.String())
	color.Cyan(figure2.String())
	fmt.Println()
}

type cliArgs struct {
	phase  string
	region string
	tile   string
}

func parseArgs(cfg *properties.Config) (cliArgs, error) {
	args := cliArgs{phase: "derivatives"}

	for _, arg := range os.Args[1:] {
		switch {
		case arg == "derivatives" || arg == "ingest" || arg == "render":
			args.phase = arg
		case strings.HasPrefix(arg, "--years="):
			parts := strings.Split(strings.TrimPrefix(arg, "--years="), "-")
			if len(parts) != 2 {
				return args, fmt.Errorf("invalid --years value %q, expected START-END", arg)
			}
			start, err1 := strconv.Atoi(parts[0])
			end, err2 := strconv.Atoi(parts[1])
			if err1 != nil || err2 != nil {
				return args, fmt.Errorf("invalid --years value %q, expected START-END", arg)
			}
			cfg.StartYear, cfg.EndYear = start, end
		case strings.HasPrefix(arg, "--cores="):
			cores, err := strconv.Atoi(strings.TrimPrefix(arg, "--cores="))
			if err != nil {
				return args, fmt.Errorf("invalid --cores value %q", arg)
			}
			cfg.Cores = cores
		case strings.HasPrefix(arg, "--input="):
			cfg.TimeseriesPath = strings.TrimPrefix(arg, "--input=")
		case strings.HasPrefix(arg, "--output="):
			cfg.OutputPath = strings.TrimPrefix(arg, "--output=")
		case strings.HasPrefix(arg, "--region="):
			args.region = strings.TrimPrefix(arg, "--region=")
		case strings.HasPrefix(arg, "--tile="):
			args.tile = strings.TrimPrefix(arg, "--tile=")
		case arg == "--no-resume":
			cfg.ResumeFromCheckpoint = false
		default:
			return args, fmt.Errorf("unknown argument %q", arg)
		}
	}

	return args, nil
}

func runDerivatives(cfg properties.Config) error {
	stats, err := phenology.Run(cfg)
	if err != nil {
		return err
	}

	notification.SendDiscordSuccessNotification(fmt.Sprintf("Derivative run complete.\n\n%s", stats.Summary()))
	return nil
}

// runIngest builds the long-form NDVI timeseries: discover granules for the
// configured years, download and mask each scene, aggregate onto the
// reference grid and write the timeseries CSV.
func runIngest(cfg properties.Config, regionPath, tile string) error {
	if regionPath == "" || tile == "" {
		return fmt.Errorf("ingest requires --region=<geojson> and --tile=<MGRS tile>")
	}

	region, err := grid.LoadRegion(regionPath)
	if err != nil {
		return err
	}
	referenceGrid, err := grid.NewGrid(region, 0)
	if err != nil {
		return err
	}
	fmt.Printf("Reference grid has %d cells\n", referenceGrid.CellCount())

	sceneDir := properties.RootPath() + "/data/scenes"
	scenes := make(map[time.Time]*hls.Scene)
	failures := []string{}

	for year := cfg.StartYear; year <= cfg.EndYear; year++ {
		startDate := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		endDate := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)

		for _, shortName := range []string{"HLSL30", "HLSS30"} {
			granules, err := hls.SearchGranules(shortName, tile, startDate, endDate)
			if err != nil {
				return fmt.Errorf("granule search failed for %s %d: %w", shortName, year, err)
			}
			fmt.Printf("Found %d %s granules for %d\n", len(granules), shortName, year)

			for _, granule := range granules {
				scene, err := hls.FetchScene(granule, sceneDir)
				if err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", granule.ID, err))
					continue
				}
				scenes[granule.Date] = scene
			}
		}
	}

	if len(scenes) == 0 {
		return fmt.Errorf("no scenes could be ingested (%d failures)", len(failures))
	}
	if len(failures) > 0 {
		fmt.Printf("Ingest finished with %d failed granules\n", len(failures))
		notification.SendDiscordWarnNotification(fmt.Sprintf("HLS ingest completed with %d failed granules.\n%s",
			len(failures), strings.Join(failures[:min(len(failures), 10)], "\n")))
	}

	observations := grid.BuildTimeseries(referenceGrid, scenes)
	if err := series.SaveObservations(observations, cfg.TimeseriesPath); err != nil {
		return err
	}

	fmt.Printf("Timeseries with %d observations written to %s\n", len(observations), cfg.TimeseriesPath)
	return nil
}

// runRender paints per-year significance maps from an existing derivative
// output table.
func runRender(cfg properties.Config, regionPath string) error {
	if regionPath == "" {
		return fmt.Errorf("render requires --region=<geojson>")
	}

	region, err := grid.LoadRegion(regionPath)
	if err != nil {
		return err
	}
	referenceGrid, err := grid.NewGrid(region, 0)
	if err != nil {
		return err
	}

	records, err := phenology.LoadRecords(cfg.OutputPath)
	if err != nil {
		return err
	}

	for year := cfg.StartYear; year <= cfg.EndYear; year++ {
		imagePath := fmt.Sprintf("%s/data/result/significance_%d.png", properties.RootPath(), year)
		if err := output.CreateSignificanceImage(records, referenceGrid, year, imagePath); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("No .env file found, relying on the process environment")
	}

	cfg := properties.ConfigFromEnv()
	args, err := parseArgs(&cfg)
	if err != nil {
		fmt.Printf("\033[31m%s\033[0m\n", err.Error())
		os.Exit(1)
	}

	printBanner()
	fmt.Printf("Phase: %s, years %d-%d, %d cores\n", args.phase, cfg.StartYear, cfg.EndYear, cfg.Cores)

	switch args.phase {
	case "derivatives":
		err = runDerivatives(cfg)
	case "ingest":
		err = runIngest(cfg, args.region, args.tile)
	case "render":
		err = runRender(cfg, args.region)
	}

	if err != nil {
		fmt.Printf("\033[31mError: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("Drought monitor %s phase failed: %s", args.phase, err.Error()))
		os.Exit(1)
	}
}
