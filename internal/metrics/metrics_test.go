package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	// Vectors only show up once a label set has been observed.
	NotificationDispatch.WithLabelValues("confirmation", "sent").Add(0)
	StatusTransitions.WithLabelValues("PENDING", "CONFIRMED").Add(0)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "consult_bookings_created_total")
	require.Contains(t, names, "consult_notification_dispatch_total")
	require.Contains(t, names, "consult_booking_status_transitions_total")

	// double registration must fail loudly
	require.Panics(t, func() { RegisterCollectors(reg) })
}
