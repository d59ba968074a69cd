package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopByAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scanners":
			assert.Equal(t, "AmountRank", r.URL.Query().Get("scanner_type"))
			assert.Equal(t, "2", r.URL.Query().Get("count"))
			_, _ = w.Write([]byte(`[{"code":"2330","name":"TSMC"},{"code":"6488","name":"GlobalWafers"}]`))
		case "/snapshots":
			var req snapshotRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"2330", "6488"}, req.Codes)
			_, _ = w.Write([]byte(`[
				{"code":"2330","exchange":"TSE","close":600,"change_rate":1.5,"total_volume":30000,"yesterday_volume":20000},
				{"code":"6488","exchange":"OTC","close":400,"change_rate":-0.5,"total_volume":900,"yesterday_volume":1000}]`))
		}
	}))
	defer srv.Close()

	snaps, err := New(srv.URL, time.Second, nil).TopByAmount(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "TSMC", snaps[0].Name)
	assert.Equal(t, "TSE", snaps[0].Exchange)
	assert.Equal(t, 20000.0, snaps[0].YesterdayVolume)
	assert.Equal(t, "GlobalWafers", snaps[1].Name)
}

func TestTopByAmountNotConfigured(t *testing.T) {
	_, err := New("", time.Second, nil).TopByAmount(context.Background(), 10)
	assert.Error(t, err)
}
