package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

// StaticWeatherProvider serves the reference forecast table. It stands in for
// a live provider when no weather API is configured.
type StaticWeatherProvider struct {
	forecasts map[string]contract.WeatherReport
}

func NewStaticWeatherProvider() *StaticWeatherProvider {
	return &StaticWeatherProvider{
		forecasts: map[string]contract.WeatherReport{
			"tokyo": {Location: "Tokyo", Condition: "clear", TemperatureC: 15, HighC: 20, LowC: 10, Humidity: "60%"},
			"kyoto": {Location: "Kyoto", Condition: "cloudy", TemperatureC: 12, HighC: 18, LowC: 8, Humidity: "70%"},
			"osaka": {Location: "Osaka", Condition: "overcast", TemperatureC: 18, HighC: 22, LowC: 14, Humidity: "75%"},
			"nara":  {Location: "Nara", Condition: "cloudy", TemperatureC: 19, HighC: 23, LowC: 15, Humidity: "60%"},
		},
	}
}

func (p *StaticWeatherProvider) Name() string {
	return ToolWeather
}

func (p *StaticWeatherProvider) Required() []string {
	return []string{"location"}
}

func (p *StaticWeatherProvider) Fetch(ctx context.Context, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	location := stringArg(args, "location")
	report, ok := p.forecasts[strings.ToLower(location)]
	if !ok {
		return nil, fmt.Errorf("no forecast data for %q", location)
	}
	return report, nil
}

// WeatherAPIConfig configures the HTTP weather provider.
type WeatherAPIConfig struct {
	URL     string        `split_words:"true" required:"true"`
	APIKey  string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"8s"`
}

// WeatherAPIProvider fetches forecasts from a remote weather service.
type WeatherAPIProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewWeatherAPIProvider(cfg WeatherAPIConfig) (*WeatherAPIProvider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("weather api url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid weather api url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &WeatherAPIProvider{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (p *WeatherAPIProvider) Name() string {
	return ToolWeather
}

func (p *WeatherAPIProvider) Required() []string {
	return []string{"location"}
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, args map[string]any) (any, error) {
	endpoint := fmt.Sprintf("%s/forecast?location=%s", p.baseURL, url.QueryEscape(stringArg(args, "location")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var report contract.WeatherReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return report, nil
}
