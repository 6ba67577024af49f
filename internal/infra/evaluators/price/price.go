// Package price implements the token-price condition evaluator. It polls a
// simple-price HTTP API and triggers when the quoted price crosses the
// configured threshold.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/pkg/validator"
)

const (
	// ExecutorID is the identifier watcher types reference to select this
	// evaluator.
	ExecutorID = "token-price"

	directionAbove = "above"
	directionBelow = "below"

	defaultCurrency = "usd"
)

// watcherConfig is the schema of the opaque watcher config this evaluator
// consumes.
type watcherConfig struct {
	Token     string `json:"token" validate:"required"`
	Threshold string `json:"threshold" validate:"required"`
	Direction string `json:"direction" validate:"omitempty,oneof=above below"`
	Currency  string `json:"currency" validate:"omitempty,alpha"`
}

type priceEvaluator struct {
	httpClient *retryablehttp.Client
	apiURL     string
}

var (
	_ evaluator.Evaluator       = (*priceEvaluator)(nil)
	_ evaluator.ConfigValidator = (*priceEvaluator)(nil)
)

// New creates the token-price evaluator. apiURL is the base URL of a
// simple-price endpoint answering
// GET {apiURL}?ids=<token>&vs_currencies=<currency> with
// {"<token>": {"<currency>": <price>}}.
func New(httpClient *retryablehttp.Client, apiURL string) *priceEvaluator {
	return &priceEvaluator{
		httpClient: httpClient,
		apiURL:     apiURL,
	}
}

func (e *priceEvaluator) Describe() evaluator.Metadata {
	return evaluator.Metadata{
		ID:          ExecutorID,
		Name:        "Token Price",
		Description: "Triggers when a token's quoted price crosses a threshold",
	}
}

func (e *priceEvaluator) ValidateConfig(config map[string]any) []string {
	cfg, err := parseConfig(config)
	if err != nil {
		if msgs := validator.Messages(err); len(msgs) > 0 {
			return msgs
		}
		return []string{err.Error()}
	}

	if _, err := decimal.NewFromString(cfg.Threshold); err != nil {
		return []string{fmt.Sprintf("'threshold': value '%s' is not a valid decimal number", cfg.Threshold)}
	}

	return nil
}

func (e *priceEvaluator) Check(ctx context.Context, config map[string]any) (evaluator.CheckResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return evaluator.CheckResult{}, err
	}

	threshold, err := decimal.NewFromString(cfg.Threshold)
	if err != nil {
		return evaluator.CheckResult{}, fmt.Errorf("invalid threshold: %w", err)
	}

	currentPrice, err := e.fetchPrice(ctx, cfg.Token, cfg.Currency)
	if err != nil {
		return evaluator.CheckResult{}, err
	}

	triggered := currentPrice.GreaterThanOrEqual(threshold)
	if cfg.Direction == directionBelow {
		triggered = currentPrice.LessThanOrEqual(threshold)
	}

	return evaluator.CheckResult{
		Triggered: triggered,
		Data: map[string]any{
			"token":     cfg.Token,
			"currency":  cfg.Currency,
			"price":     currentPrice.String(),
			"threshold": threshold.String(),
			"direction": cfg.Direction,
		},
	}, nil
}

func (e *priceEvaluator) fetchPrice(ctx context.Context, token, currency string) (decimal.Decimal, error) {
	query := url.Values{
		"ids":           {token},
		"vs_currencies": {currency},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, e.apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	res, err := e.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching price of %s: %w", token, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price provider returned status %d", res.StatusCode)
	}

	var quotes map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(res.Body).Decode(&quotes); err != nil {
		return decimal.Zero, fmt.Errorf("decoding price response: %w", err)
	}

	quote, ok := quotes[token][currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("price provider returned no %s quote for %s", currency, token)
	}

	return quote, nil
}

// parseConfig decodes the opaque config map into the evaluator's schema and
// validates it. Direction defaults to "above" and currency to "usd".
func parseConfig(config map[string]any) (watcherConfig, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return watcherConfig{}, err
	}

	var cfg watcherConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return watcherConfig{}, err
	}

	if cfg.Direction == "" {
		cfg.Direction = directionAbove
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}

	return cfg, validator.Validate(cfg)
}
