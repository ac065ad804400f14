package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Outbound API requests by method and result status",
		},
		[]string{"method", "status"},
	)

	tokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_token_refreshes_total",
			Help: "Credential refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	dealTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_transitions_total",
			Help: "Deal transition attempts by action and result",
		},
		[]string{"action", "result"},
	)

	chatActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_actions_selected_total",
			Help: "System-action selections forwarded from chat",
		},
		[]string{"action_code"},
	)
)

// TrackRequest records one outbound gateway request.
func TrackRequest(method, status string) {
	apiRequests.WithLabelValues(method, status).Inc()
}

// TrackRefresh records one credential refresh attempt.
func TrackRefresh(outcome string) {
	tokenRefreshes.WithLabelValues(outcome).Inc()
}

// TrackTransition records one deal transition attempt.
func TrackTransition(action, result string) {
	dealTransitions.WithLabelValues(action, result).Inc()
}

// TrackChatAction records one action selection from a system message.
func TrackChatAction(actionCode string) {
	chatActions.WithLabelValues(actionCode).Inc()
}
