// Package api is a client for the Al Adhan prayer times API, used as an
// independent reference for locally computed times.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: defaultBaseURL,
	}
}

// methodIDs maps calculation methods to Al Adhan method ids.
var methodIDs = map[prayer.CalculationMethod]int{
	prayer.Jafari:  0,
	prayer.Karachi: 1,
	prayer.ISNA:    2,
	prayer.MWL:     3,
	prayer.Makkah:  4,
	prayer.Egypt:   5,
	prayer.Tehran:  7,
	prayer.Custom:  99,
}

// latitudeAdjustments maps higher latitude rules to Al Adhan's
// latitudeAdjustmentMethod. NoAdjustment has no equivalent and is omitted.
var latitudeAdjustments = map[prayer.HigherLatitudeMethod]int{
	prayer.MidNight:   1,
	prayer.OneSeventh: 2,
	prayer.AngleBased: 3,
}

// MethodID returns the Al Adhan id of m.
func MethodID(m prayer.CalculationMethod) (int, bool) {
	id, ok := methodIDs[m]
	return id, ok
}

// QueryParams returns the request parameters describing attr.
func QueryParams(attr prayer.Attribute) (url.Values, error) {
	id, ok := MethodID(attr.Method)
	if !ok {
		return nil, fmt.Errorf("%w: method %s has no API equivalent", prayer.ErrInvalidConfiguration, attr.Method)
	}

	params := url.Values{}
	params.Set("method", strconv.Itoa(id))
	params.Set("school", strconv.Itoa(int(attr.Asr)))
	if adj, ok := latitudeAdjustments[attr.HigherLatitude]; ok {
		params.Set("latitudeAdjustmentMethod", strconv.Itoa(adj))
	}
	if attr.Method == prayer.Custom {
		params.Set("methodSettings", fmt.Sprintf("%s,null,%s",
			strconv.FormatFloat(attr.Custom.FajrAngle, 'f', -1, 64),
			strconv.FormatFloat(attr.Custom.IshaAngle, 'f', -1, 64)))
	}
	if attr.Offsets != (prayer.Offsets{}) {
		params.Set("tune", tune(attr.Offsets))
	}
	return params, nil
}

// tune renders offsets in the API's order:
// Imsak,Fajr,Sunrise,Dhuhr,Asr,Maghrib,Sunset,Isha,Midnight.
func tune(o prayer.Offsets) string {
	vals := []int{
		0,
		o[prayer.IndexFajr], o[prayer.IndexSunrise], o[prayer.IndexDhuhr], o[prayer.IndexAsr],
		o[prayer.IndexMaghrib], 0, o[prayer.IndexIsha],
		0,
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// FetchByCoordinates fetches prayer times for the given date and coordinates.
func (c *Client) FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, attr prayer.Attribute) (*Response, error) {
	params, err := QueryParams(attr)
	if err != nil {
		return nil, err
	}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 6, 64))

	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, date.Format("02-01-2006"))
	return c.doRequest(ctx, endpoint, params)
}

// FetchByCity fetches prayer times for the given date, city, and country.
func (c *Client) FetchByCity(ctx context.Context, date time.Time, city, country string, attr prayer.Attribute) (*Response, error) {
	params, err := QueryParams(attr)
	if err != nil {
		return nil, err
	}
	params.Set("city", city)
	params.Set("country", country)

	endpoint := fmt.Sprintf("%s/timingsByCity/%s", c.BaseURL, date.Format("02-01-2006"))
	return c.doRequest(ctx, endpoint, params)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build API request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	if apiResp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", apiResp.Code, apiResp.Status)
	}

	return &apiResp, nil
}
