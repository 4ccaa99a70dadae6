package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
)

var confirmationTpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #FF6B35, #FF8E53); padding: 30px; text-align: center;">
    <h1 style="color: white; margin: 0;">{{.AppName}}</h1>
    <p style="color: rgba(255,255,255,0.9); margin: 10px 0 0;">Digital Marketing Agency</p>
  </div>
  <div style="padding: 30px; background: white;">
    <h2 style="color: #1A1A2E;">Your Consultation is Booked!</h2>
    <p>Dear {{.Booking.FullName}},</p>
    <p>Thank you for booking a consultation with {{.AppName}}. We're excited to help grow your business!</p>
    <div style="background: #f5f5f5; padding: 20px; border-radius: 10px; margin: 20px 0;">
      <h3 style="color: #FF6B35; margin-top: 0;">Booking Details</h3>
      <p><strong>Service:</strong> {{.Booking.ServiceType}}</p>
      <p><strong>Budget:</strong> {{or .Booking.MonthlyBudget "Not specified"}}</p>
      <p><strong>Business:</strong> {{or .Booking.BusinessName "Not specified"}}</p>
    </div>
    <p>Our team will call you at <strong>{{.Booking.Phone}}</strong> to confirm the consultation time.</p>
    {{- if .Support}}
    <p>You can also reach us at: <a href="mailto:{{.Support}}">{{.Support}}</a></p>
    {{- end}}
  </div>
</body>
</html>
`))

var adminAlertTpl = template.Must(template.New("admin_alert").Parse(`<h2>New Consultation Booking</h2>
<p><b>ID:</b> {{.Booking.ID}}</p>
<p><b>Name:</b> {{.Booking.FullName}}</p>
<p><b>Email:</b> {{.Booking.Email}}</p>
<p><b>Phone:</b> {{.Booking.Phone}}</p>
<p><b>Business:</b> {{.Booking.BusinessName}}</p>
<p><b>City:</b> {{.Booking.City}}</p>
<p><b>Service:</b> {{.Booking.ServiceType}}</p>
<p><b>Budget:</b> {{.Booking.MonthlyBudget}}</p>
<p><b>Message:</b> {{.Booking.Message}}</p>
<p><b>Received:</b> {{.Booking.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
`))

type templateData struct {
	AppName string
	Support string
	Booking booking.Booking
}

// RenderConfirmation returns the subject and HTML body sent to the client.
func RenderConfirmation(cfg Config, b booking.Booking) (string, string, error) {
	var buf bytes.Buffer
	if err := confirmationTpl.Execute(&buf, templateData{AppName: cfg.AppName, Support: cfg.Support, Booking: b}); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}
	return "Booking Confirmed - " + cfg.AppName, buf.String(), nil
}

// RenderAdminAlert returns the subject and HTML body sent to the operations inbox.
func RenderAdminAlert(cfg Config, b booking.Booking) (string, string, error) {
	var buf bytes.Buffer
	if err := adminAlertTpl.Execute(&buf, templateData{AppName: cfg.AppName, Booking: b}); err != nil {
		return "", "", fmt.Errorf("render admin alert: %w", err)
	}
	return fmt.Sprintf("New Booking #%s - %s", b.ID, b.FullName), buf.String(), nil
}
