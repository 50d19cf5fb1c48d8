package forest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/idleforest/idleforest/internal/models"
)

func TestParseEarnings(t *testing.T) {
	assert.InDelta(t, 300.0, ParseEarnings("$300.00"), 1e-9)
	assert.InDelta(t, 1234.5, ParseEarnings("$1,234.50"), 1e-9)
	assert.InDelta(t, 12.0, ParseEarnings("12"), 1e-9)
	assert.Zero(t, ParseEarnings("n/a"))
	assert.Zero(t, ParseEarnings(""))

	for _, s := range []string{"NaN", "$Inf", "-Inf", "infinity", "$+Infinity"} {
		assert.Zero(t, ParseEarnings(s), s)
	}
}

func TestParseEarnings_NonFiniteKeepsMetricsEncodable(t *testing.T) {
	for _, s := range []string{"NaN", "$Inf"} {
		m := Compute(Input{GlobalEarnings: ParseEarnings(s), GlobalRequests: 1000, UserRequests: 10})

		assert.Equal(t, int64(1), m.TotalTrees, s)
		assert.InDelta(t, 0.01, m.DisplayProgress, 1e-9, s)
		_, err := json.Marshal(m)
		assert.NoError(t, err, s)
	}
}

func TestStatsClient_Fetch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "pk_test", r.URL.Query().Get("publicKey"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"earnings":"$300.00","requestsTotal":10000}`))
		}))
		defer srv.Close()

		c := NewStatsClient(srv.URL, "pk_test", time.Second)
		stats, err := c.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "$300.00", stats.Earnings)
		assert.Equal(t, int64(10000), stats.RequestsTotal)
	})

	t.Run("unexpected status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewStatsClient(srv.URL, "", time.Second).Fetch(context.Background())
		assert.Error(t, err)
	})

	t.Run("bad json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"earnings":`))
		}))
		defer srv.Close()

		_, err := NewStatsClient(srv.URL, "", time.Second).Fetch(context.Background())
		assert.Error(t, err)
	})
}

type StatsMock struct{ mock.Mock }

func (m *StatsMock) Fetch(ctx context.Context) (*models.GlobalStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GlobalStats), args.Error(1)
}

type UsageMock struct{ mock.Mock }

func (m *UsageMock) SumUserRequests(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestService_ForUser(t *testing.T) {
	stats := new(StatsMock)
	usage := new(UsageMock)
	stats.On("Fetch", mock.Anything).Return(&models.GlobalStats{Earnings: "$300.00", RequestsTotal: 10000}, nil)
	usage.On("SumUserRequests", mock.Anything, "user-1").Return(int64(100), nil)

	m, err := NewService(stats, usage).ForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), m.TotalTrees)
	assert.InDelta(t, 10.0, m.UserProgress, 1e-9)
}

func TestService_ForUser_Errors(t *testing.T) {
	t.Run("usage error", func(t *testing.T) {
		stats := new(StatsMock)
		usage := new(UsageMock)
		usage.On("SumUserRequests", mock.Anything, "user-1").Return(int64(0), errors.New("db down"))

		_, err := NewService(stats, usage).ForUser(context.Background(), "user-1")
		assert.Error(t, err)
		stats.AssertNotCalled(t, "Fetch", mock.Anything)
	})

	t.Run("stats error", func(t *testing.T) {
		stats := new(StatsMock)
		usage := new(UsageMock)
		stats.On("Fetch", mock.Anything).Return(nil, errors.New("timeout"))
		usage.On("SumUserRequests", mock.Anything, "user-1").Return(int64(5), nil)

		_, err := NewService(stats, usage).ForUser(context.Background(), "user-1")
		assert.Error(t, err)
	})
}
