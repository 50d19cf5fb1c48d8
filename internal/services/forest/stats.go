package forest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/idleforest/idleforest/internal/models"
)

// StatsClient получает глобальную статистику сети.
type StatsClient struct {
	statsURL   string
	publicKey  string
	httpClient *http.Client
}

// NewStatsClient создаёт клиент статистики.
func NewStatsClient(statsURL, publicKey string, timeout time.Duration) *StatsClient {
	return &StatsClient{
		statsURL:   statsURL,
		publicKey:  publicKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch запрашивает агрегат {"earnings":"$300.00","requestsTotal":10000}.
func (c *StatsClient) Fetch(ctx context.Context) (*models.GlobalStats, error) {
	const op = "forest.StatsClient.Fetch"

	u, err := url.Parse(c.statsURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.publicKey != "" {
		q := u.Query()
		q.Set("publicKey", c.publicKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var stats models.GlobalStats
	if err = json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}

// ParseEarnings разбирает строку вида "$300.00". Неразбираемое или нечисловое (NaN, Inf) значение даёт 0.
func ParseEarnings(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
