package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfirmation(t *testing.T) {
	b := sampleBooking()

	subject, body, err := RenderConfirmation(testCfg, b)
	require.NoError(t, err)

	assert.Equal(t, "Booking Confirmed - DigiGrow", subject)
	for _, want := range []string{"Dear Asha Verma", "SEO", "25k-50k", "Verma Sweets", "911234567890", "mailto:hello@digigrow.agency"} {
		assert.Contains(t, body, want)
	}
}

func TestRenderConfirmation_OptionalFieldsAndEscaping(t *testing.T) {
	b := sampleBooking()
	b.MonthlyBudget = ""
	b.BusinessName = ""
	b.FullName = "<script>alert(1)</script>"

	_, body, err := RenderConfirmation(Config{AppName: "DigiGrow"}, b)
	require.NoError(t, err)

	assert.Contains(t, body, "Not specified")
	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "mailto:")
}

func TestRenderAdminAlert(t *testing.T) {
	b := sampleBooking()

	subject, body, err := RenderAdminAlert(testCfg, b)
	require.NoError(t, err)

	assert.Equal(t, "New Booking #"+b.ID+" - Asha Verma", subject)
	for _, want := range []string{b.ID, "asha@example.com", "911234567890", "Verma Sweets", "Delhi", "SEO", "25k-50k", "Need more walk-ins", "2026-10-19 09:30 UTC"} {
		assert.Contains(t, body, want)
	}
}
