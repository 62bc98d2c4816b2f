// Package metrics defines and registers the custom Prometheus metrics of the
// auth service. It is the single source of truth for metric names, labels,
// and help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// Result label values shared by the signup and signin counters.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultDenied  = "denied"
	ResultError   = "error"
)

// SignupsTotal counts local signup attempts.
// Label:
//   - result: "success", "invalid" (validation or conflict) or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of local signup attempts, by result.",
	},
	[]string{"result"},
)

// SigninsTotal counts local password signins.
// Label:
//   - result: "success", "invalid", "denied" (unknown email or wrong password) or "error"
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of local signin attempts, by result.",
	},
	[]string{"result"},
)

// FederatedSigninsTotal counts successful federated signins.
// Label:
//   - outcome: "existing", "linked" or "created"
var FederatedSigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "federated_signins_total",
		Help:      "Total number of successful federated signins, by what they did to the identity store.",
	},
	[]string{"outcome"},
)

// TokenRejectionsTotal counts requests refused by the authentication middleware.
// Label:
//   - reason: "missing", "expired" or "invalid"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of requests rejected for a missing or unusable session token.",
	},
	[]string{"reason"},
)
