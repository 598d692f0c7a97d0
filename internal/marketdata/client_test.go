package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRange(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	from, err := time.Parse("2006-01-02", "2025-03-01")
	require.NoError(t, err)
	to, err := time.Parse("2006-01-02", "2025-04-01")
	require.NoError(t, err)
	return from, to
}

func TestGetHistoricalPrices(t *testing.T) {
	t.Run("reverses descending provider order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/EBI", r.URL.Path)
			assert.Equal(t, "2025-03-01", r.URL.Query().Get("from"))
			assert.Equal(t, "2025-04-01", r.URL.Query().Get("to"))
			assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

			w.Write([]byte(`{"historical":[
				{"date":"2025-03-05","close":46.10},
				{"date":"2025-03-04","close":45.80},
				{"date":"2025-03-03","close":45.50}
			]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", zerolog.Nop())
		from, to := testRange(t)
		points, err := client.GetHistoricalPrices(context.Background(), "EBI", from, to)

		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, "2025-03-03", points[0].Date.Format("2006-01-02"))
		assert.Equal(t, "2025-03-05", points[2].Date.Format("2006-01-02"))
		assert.Equal(t, "45.5", points[0].Close.String())
	})

	t.Run("index symbols use the index path", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{"historical":[{"date":"2025-03-03","close":5000}]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", zerolog.Nop())
		from, to := testRange(t)
		_, err := client.GetHistoricalPrices(context.Background(), "^GSPC", from, to)

		require.NoError(t, err)
		assert.Equal(t, "/index/GSPC", gotPath)
	})

	t.Run("non-OK status is swallowed as empty result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient(server.URL, "bad-key", zerolog.Nop())
		from, to := testRange(t)
		points, err := client.GetHistoricalPrices(context.Background(), "EBI", from, to)

		assert.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("malformed payload is swallowed as empty result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", zerolog.Nop())
		from, to := testRange(t)
		points, err := client.GetHistoricalPrices(context.Background(), "EBI", from, to)

		assert.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("unreachable server is swallowed as empty result", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "test-key", zerolog.Nop())
		from, to := testRange(t)
		points, err := client.GetHistoricalPrices(context.Background(), "EBI", from, to)

		assert.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("price points with bad dates are skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"historical":[
				{"date":"2025-03-04","close":45.80},
				{"date":"not-a-date","close":45.50}
			]}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", zerolog.Nop())
		from, to := testRange(t)
		points, err := client.GetHistoricalPrices(context.Background(), "EBI", from, to)

		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, "2025-03-04", points[0].Date.Format("2006-01-02"))
	})
}
