package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/drought-guardian/hls-drought-monitor/internal/properties"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"
)

const downloadRetries = 10

func authenticatedClient() (*http.Client, error) {
	clientID := properties.EarthdataClientID()
	clientSecret := properties.EarthdataClientSecret()
	tokenURL := properties.EarthdataTokenURL()

	if clientID == "" || clientSecret == "" || tokenURL == "" {
		return nil, fmt.Errorf("missing required environment variables: EARTHDATA_CLIENT_ID, EARTHDATA_CLIENT_SECRET, or EARTHDATA_TOKEN_URL")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return config.Client(context.Background()), nil
}

func downloadFile(client *http.Client, fileURL, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		// Already downloaded on a previous run.
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= downloadRetries; attempt++ {
		resp, err := client.Get(fileURL)
		if err != nil {
			lastErr = err
			fmt.Printf("Attempt %d failed for %s: %v\n", attempt, fileURL, err)
			time.Sleep(5 * time.Second)
			continue
		}

		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return fmt.Errorf("unauthorized access downloading %s, check your Earthdata credentials", fileURL)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
			fmt.Printf("Attempt %d failed for %s: %v\n", attempt, fileURL, lastErr)
			time.Sleep(5 * time.Second)
			continue
		}

		tmpPath := destPath + ".tmp"
		file, err := os.Create(tmpPath)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("failed to create %s: %w", tmpPath, err)
		}
		_, err = io.Copy(file, resp.Body)
		resp.Body.Close()
		file.Close()
		if err != nil {
			os.Remove(tmpPath)
			lastErr = err
			continue
		}

		return os.Rename(tmpPath, destPath)
	}

	return fmt.Errorf("failed to download %s after %d attempts: %v", fileURL, downloadRetries, lastErr)
}

// DownloadGranuleBands fetches the NIR, Red and Fmask band files for one
// granule in parallel and returns their local paths in that order.
func DownloadGranuleBands(granule Granule, destDir string) ([3]string, error) {
	var paths [3]string

	sensor, err := SensorFromProduct(granule.ShortName)
	if err != nil {
		return paths, err
	}
	bands := sensor.Bands()

	client, err := authenticatedClient()
	if err != nil {
		return paths, err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return paths, fmt.Errorf("failed to create scene directory: %w", err)
	}

	wanted := [3]string{bands.NIR, bands.Red, bands.Fmask}
	var g errgroup.Group
	for i, band := range wanted {
		i, band := i, band
		g.Go(func() error {
			bandURL, err := granule.BandURL(band)
			if err != nil {
				return err
			}
			destPath := filepath.Join(destDir, fmt.Sprintf("%s.%s.tif", granule.ID, band))
			if err := downloadFile(client, bandURL, destPath); err != nil {
				return err
			}
			paths[i] = destPath
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return paths, err
	}
	return paths, nil
}

// FetchScene discovers nothing by itself: it downloads one already-discovered
// granule's bands and assembles the masked NDVI scene.
func FetchScene(granule Granule, destDir string) (*Scene, error) {
	sensor, err := SensorFromProduct(granule.ShortName)
	if err != nil {
		return nil, err
	}

	paths, err := DownloadGranuleBands(granule, destDir)
	if err != nil {
		return nil, err
	}

	return BuildScene(sensor, paths[0], paths[1], paths[2])
}
