package hls

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/drought-guardian/hls-drought-monitor/internal/cache"
)

const cmrSearchURL = "https://cmr.earthdata.nasa.gov/search/granules.json"

// Granule is one discovered HLS scene: identity plus per-band download URLs.
type Granule struct {
	ID        string    `json:"id"`
	ShortName string    `json:"short_name"`
	Tile      string    `json:"tile"`
	Date      time.Time `json:"date"`
	BandURLs  []string  `json:"band_urls"`
}

// BandURL picks the download link for one band suffix (e.g. "B04", "Fmask").
func (g Granule) BandURL(band string) (string, error) {
	suffix := "." + band + ".tif"
	for _, u := range g.BandURLs {
		if strings.HasSuffix(u, suffix) {
			return u, nil
		}
	}
	return "", fmt.Errorf("granule %s has no %s band link", g.ID, band)
}

type cmrFeed struct {
	Feed struct {
		Entry []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			TimeStart string `json:"time_start"`
			Links     []struct {
				Rel  string `json:"rel"`
				Href string `json:"href"`
			} `json:"links"`
		} `json:"entry"`
	} `json:"feed"`
}

var granuleCache = cache.NewFileCache[[]Granule]("cmr", 24*time.Hour)

// SearchGranules queries the CMR granule endpoint for one HLS product, MGRS
// tile and date range. Results are cached on disk for a day since granule
// metadata for past dates is effectively immutable.
func SearchGranules(shortName, tile string, startDate, endDate time.Time) ([]Granule, error) {
	cacheKey := granuleCache.GenerateKey(shortName, tile, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if granules, ok := granuleCache.Get(cacheKey); ok {
		return granules, nil
	}

	params := url.Values{}
	params.Set("short_name", shortName)
	params.Set("temporal", fmt.Sprintf("%s,%s", startDate.Format(time.RFC3339), endDate.Format(time.RFC3339)))
	params.Set("attribute[]", fmt.Sprintf("string,MGRS_TILE_ID,%s", tile))
	params.Set("page_size", "2000")

	resp, err := http.Get(cmrSearchURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("CMR search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("CMR search returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed cmrFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}

	granules := make([]Granule, 0, len(feed.Feed.Entry))
	for _, entry := range feed.Feed.Entry {
		date, err := time.Parse(time.RFC3339, entry.TimeStart)
		if err != nil {
			fmt.Printf("Skipping granule %s with unparseable time %q\n", entry.ID, entry.TimeStart)
			continue
		}

		var bandURLs []string
		for _, link := range entry.Links {
			if strings.Contains(link.Rel, "/data#") && strings.HasSuffix(link.Href, ".tif") {
				bandURLs = append(bandURLs, link.Href)
			}
		}
		if len(bandURLs) == 0 {
			continue
		}

		granules = append(granules, Granule{
			ID:        entry.ID,
			ShortName: shortName,
			Tile:      tile,
			Date:      date,
			BandURLs:  bandURLs,
		})
	}

	if err := granuleCache.Set(cacheKey, granules); err != nil {
		fmt.Printf("Warning: failed to cache CMR results: %v\n", err)
	}

	return granules, nil
}
