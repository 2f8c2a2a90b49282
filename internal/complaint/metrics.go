package complaint

import (
	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	complaintsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_submitted_total",
			Help: "Total number of complaints submitted",
		},
		[]string{"category"},
	)

	statusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_status_updates_total",
			Help: "Total number of status updates by resulting status",
		},
		[]string{"status"},
	)

	lifecycleErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_lifecycle_errors_total",
			Help: "Rejected or failed lifecycle operations by error kind",
		},
		[]string{"operation", "kind"},
	)
)

// otherCategory labels submissions outside models.KnownCategories so the
// category label stays bounded.
const otherCategory = "other"

func metricCategory(category string) string {
	if models.IsKnownCategory(category) {
		return category
	}
	return otherCategory
}

func recordError(op string, err error) {
	lifecycleErrorsTotal.WithLabelValues(op, apperr.Kind(err)).Inc()
}
