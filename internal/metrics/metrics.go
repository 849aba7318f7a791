// Package metrics holds the Prometheus collectors for pose control.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Playback results.
const (
	PlaybackCompleted = "completed"
	PlaybackCanceled  = "canceled"
	PlaybackRejected  = "rejected"
)

var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zy_commands_total",
			Help: "Chat messages handled as pose commands, by rule",
		},
		[]string{"rule"},
	)

	ChatFallthroughTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zy_chat_fallthrough_total",
			Help: "Chat messages that matched no command and went to the chat backend",
		},
	)

	PlaybacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zy_playbacks_total",
			Help: "Sequence playbacks, by result",
		},
		[]string{"result"},
	)

	PlaybackStepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zy_playback_steps_total",
			Help: "Sequence actions applied during playback",
		},
	)

	ChatLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "zy_chat_latency_seconds",
			Help: "Chat backend round trip in seconds",
		},
	)

	SyncClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zy_sync_clients",
			Help: "Connected pose sync websocket clients",
		},
	)
)
