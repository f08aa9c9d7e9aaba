package message

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "chat_messages_persisted_total",
	Help: "Messages successfully appended to the durable store.",
})
