package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCommandsTotal_ByRule(t *testing.T) {
	before := testutil.ToFloat64(CommandsTotal.WithLabelValues("head_down"))
	CommandsTotal.WithLabelValues("head_down").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsTotal.WithLabelValues("head_down")))
}

func TestSyncClients_Gauge(t *testing.T) {
	SyncClients.Set(0)
	SyncClients.Inc()
	SyncClients.Inc()
	SyncClients.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(SyncClients))
}
