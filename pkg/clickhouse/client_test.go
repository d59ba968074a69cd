package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.local"),
		WithPort(8123),
		WithDatabase("market"),
		WithCredentials("reader", "secret"),
		WithHTTP(true),
		WithMaxExecutionTime(30 * time.Second),
		WithTimeouts(0, 20*time.Second),
	} {
		opt(&cfg)
	}

	o := options(cfg)
	assert.Equal(t, []string{"ch.local:8123"}, o.Addr)
	assert.Equal(t, "market", o.Auth.Database)
	assert.Equal(t, "reader", o.Auth.Username)
	assert.Equal(t, ch.HTTP, o.Protocol)
	assert.Equal(t, 30, o.Settings["max_execution_time"])
	assert.Equal(t, 5*time.Second, o.DialTimeout)
	assert.Equal(t, 20*time.Second, o.ReadTimeout)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrNoHost)
}
