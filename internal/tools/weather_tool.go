package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// WeatherHistoryTool retrieves daily historical weather records for a
// location and month, using an Open-Meteo-compatible geocoding +
// archive API pair.
type WeatherHistoryTool struct {
	GeocodingURL string
	ArchiveURL   string
	HTTPClient   *http.Client
}

func NewWeatherHistoryTool() *WeatherHistoryTool {
	return &WeatherHistoryTool{
		GeocodingURL: "https://geocoding-api.open-meteo.com",
		ArchiveURL:   "https://archive-api.open-meteo.com",
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *WeatherHistoryTool) Name() string {
	return "weather_history"
}

func (w *WeatherHistoryTool) Description() string {
	return "Retrieves daily historical weather records for a given location and month."
}

func (w *WeatherHistoryTool) Parameters() map[string]any {
	return map[string]any{
		"locations": map[string]any{
			"type":        "string",
			"description": "Location to get the weather for (e.g., city or country).",
		},
		"month": map[string]any{
			"type":        "number",
			"description": "Month number. Must be between 1 and 12.",
		},
	}
}

func (w *WeatherHistoryTool) Required() []string {
	return []string{"locations", "month"}
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func (w *WeatherHistoryTool) Call(ctx context.Context, args map[string]any) (string, error) {
	location, _ := args["locations"].(string)
	monthArg, ok := args["month"].(float64)
	if !ok {
		return "", fmt.Errorf("month parameter must be a number")
	}
	month := int(monthArg)
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month must be between 1 and 12, got %d", month)
	}

	lat, lon, resolved, err := w.geocode(ctx, location)
	if err != nil {
		return "", err
	}

	// Most recent fully elapsed occurrence of the requested month.
	now := time.Now()
	year := now.Year()
	if month >= int(now.Month()) {
		year--
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("timezone", "UTC")

	body, err := w.get(ctx, w.ArchiveURL+"/v1/archive?"+q.Encode())
	if err != nil {
		return "", err
	}

	// Wrap the raw daily series with the resolved location so the
	// model can attribute the data.
	payload := map[string]any{
		"location": resolved,
		"month":    month,
		"year":     year,
		"records":  json.RawMessage(body),
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (w *WeatherHistoryTool) geocode(ctx context.Context, location string) (lat, lon float64, name string, err error) {
	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")

	body, err := w.get(ctx, w.GeocodingURL+"/v1/search?"+q.Encode())
	if err != nil {
		return 0, 0, "", err
	}

	var parsed geocodingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, 0, "", fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return 0, 0, "", fmt.Errorf("no match for location %q", location)
	}

	r := parsed.Results[0]
	resolved := r.Name
	if r.Country != "" {
		resolved += ", " + r.Country
	}
	return r.Latitude, r.Longitude, resolved, nil
}

func (w *WeatherHistoryTool) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather service returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
