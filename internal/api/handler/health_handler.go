package handler

import "net/http"

// HealthChecker reports broker connectivity for the readiness probe.
type HealthChecker interface {
	IsConnected() bool
}

// HealthHandler serves the liveness/readiness probe endpoint.
type HealthHandler struct {
	broker HealthChecker
}

func NewHealthHandler(broker HealthChecker) *HealthHandler {
	return &HealthHandler{broker: broker}
}

// Health handles GET /health. The service is alive as long as it responds;
// broker status is reported but does not fail the probe, since the HTTP
// query surface remains useful while the consumer reconnects.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	brokerStatus := "connected"
	if h.broker != nil && !h.broker.IsConnected() {
		brokerStatus = "disconnected"
	}
	respondData(w, http.StatusOK, map[string]string{
		"status": status,
		"broker": brokerStatus,
	})
}
