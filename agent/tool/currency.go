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

// Reference rates per 1 CNY. Cross rates derive from the CNY legs.
var referenceRatesPerCNY = map[string]float64{
	"CNY": 1.0,
	"JPY": 0.21,
	"USD": 0.14,
	"EUR": 0.11,
	"KRW": 0.0007,
}

// StaticCurrencyProvider serves the reference exchange-rate table.
type StaticCurrencyProvider struct {
	rates map[string]float64
}

func NewStaticCurrencyProvider() *StaticCurrencyProvider {
	return &StaticCurrencyProvider{rates: referenceRatesPerCNY}
}

func (p *StaticCurrencyProvider) Name() string {
	return ToolCurrency
}

func (p *StaticCurrencyProvider) Required() []string {
	return []string{"base", "target"}
}

func (p *StaticCurrencyProvider) Fetch(ctx context.Context, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := strings.ToUpper(stringArg(args, "base"))
	target := strings.ToUpper(stringArg(args, "target"))

	baseLeg, ok := p.rates[base]
	if !ok {
		return nil, fmt.Errorf("unsupported currency %q", base)
	}
	targetLeg, ok := p.rates[target]
	if !ok {
		return nil, fmt.Errorf("unsupported currency %q", target)
	}

	return contract.ExchangeRate{
		Base:   base,
		Target: target,
		Rate:   targetLeg / baseLeg,
		AsOf:   time.Now().UTC(),
	}, nil
}

// ExchangeAPIConfig configures the HTTP currency provider.
type ExchangeAPIConfig struct {
	URL     string        `split_words:"true" required:"true"`
	APIKey  string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"8s"`
}

// ExchangeAPIProvider fetches live rates from a remote exchange service.
type ExchangeAPIProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewExchangeAPIProvider(cfg ExchangeAPIConfig) (*ExchangeAPIProvider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("exchange api url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid exchange api url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &ExchangeAPIProvider{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (p *ExchangeAPIProvider) Name() string {
	return ToolCurrency
}

func (p *ExchangeAPIProvider) Required() []string {
	return []string{"base", "target"}
}

func (p *ExchangeAPIProvider) Fetch(ctx context.Context, args map[string]any) (any, error) {
	endpoint := fmt.Sprintf("%s/rate?base=%s&target=%s",
		p.baseURL,
		url.QueryEscape(strings.ToUpper(stringArg(args, "base"))),
		url.QueryEscape(strings.ToUpper(stringArg(args, "target"))),
	)
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
		return nil, fmt.Errorf("exchange api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rate contract.ExchangeRate
	if err := json.NewDecoder(resp.Body).Decode(&rate); err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}
	if rate.Rate <= 0 {
		return nil, fmt.Errorf("exchange api returned non-positive rate %g", rate.Rate)
	}
	return rate, nil
}
