package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MessagingMetrics contains Prometheus metrics for the messaging API.
type MessagingMetrics struct {
	MessagesSent     prometheus.Counter
	MessagesDeleted  *prometheus.CounterVec
	MessagesListed   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	MessageSizeBytes prometheus.Histogram
}

// Deletion outcome label values.
const (
	OutcomeSoftDeleted = "soft_deleted"
	OutcomePurged      = "purged"
)

// NewMessagingMetrics creates and registers messaging metrics with the given registerer.
func NewMessagingMetrics(registerer prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialog_messages_sent_total",
			Help: "Total number of messages sent",
		}),
		MessagesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialog_messages_deleted_total",
				Help: "Total number of delete operations",
			},
			[]string{"outcome"}, // soft_deleted/purged
		),
		MessagesListed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialog_messages_listed_total",
				Help: "Total number of mailbox listings",
			},
			[]string{"scope"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dialog_request_duration_seconds",
				Help:    "Messaging operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"}, // status: ok/error
		),
		MessageSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dialog_message_size_bytes",
			Help:    "Size of sent message content in bytes",
			Buckets: []float64{64, 256, 512, 1024, 2048, 4096},
		}),
	}

	registerer.MustRegister(
		m.MessagesSent,
		m.MessagesDeleted,
		m.MessagesListed,
		m.RequestDuration,
		m.MessageSizeBytes,
	)

	return m
}
