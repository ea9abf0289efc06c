package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

var iataPattern = regexp.MustCompile(`^[A-Z]{2,3}$`)

// PopularDestinationsTool gets the most popular directions and ticket
// prices from a specified city, via a Travelpayouts-compatible
// endpoint.
type PopularDestinationsTool struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewPopularDestinationsTool(token string) *PopularDestinationsTool {
	return &PopularDestinationsTool{
		BaseURL:    "https://api.travelpayouts.com",
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PopularDestinationsTool) Name() string {
	return "popular_destinations"
}

func (p *PopularDestinationsTool) Description() string {
	return "Gets the most popular directions and corresponding airplane ticket prices from a specified city. Convert tool output to full city names."
}

func (p *PopularDestinationsTool) Parameters() map[string]any {
	return map[string]any{
		"origin_iata": map[string]any{
			"type":        "string",
			"pattern":     "^[A-Z]{2,3}$",
			"description": "The point of departure. Must be an IATA city code or a country code, 2 to 3 symbols in length.",
		},
	}
}

func (p *PopularDestinationsTool) Required() []string {
	return []string{"origin_iata"}
}

func (p *PopularDestinationsTool) Call(ctx context.Context, args map[string]any) (string, error) {
	origin, _ := args["origin_iata"].(string)
	if !iataPattern.MatchString(origin) {
		return "", fmt.Errorf("origin_iata %q is not a valid IATA code", origin)
	}

	q := url.Values{}
	q.Set("origin", origin)
	q.Set("currency", "usd")
	q.Set("token", p.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.BaseURL+"/v1/city-directions?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("destinations request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("destinations service returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if !json.Valid(body) {
		return "", fmt.Errorf("destinations service returned invalid JSON")
	}
	return string(body), nil
}
