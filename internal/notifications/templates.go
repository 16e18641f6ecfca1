package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/asookemart/asooke-backend/pkg/mailer"
)

var pages = template.Must(template.New("layout").Parse(`
{{define "open"}}<div style="font-family:Arial,sans-serif;max-width:560px;margin:auto;color:#222">
<h2 style="color:#7a3e12">Aso Oke</h2>{{end}}
{{define "close"}}<p style="font-size:12px;color:#888">You are receiving this email because of activity on your Aso Oke account.</p></div>{{end}}

{{define "order_status"}}{{template "open"}}
<p>Hello {{.CustomerName}},</p>
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status.Label}}</strong>.</p>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<p>Tracking number: {{.TrackingNumber}}</p>
{{template "close"}}{{end}}

{{define "delivery_confirmation"}}{{template "open"}}
<p>Hello {{.CustomerName}},</p>
<p>Your order <strong>{{.OrderNumber}}</strong> was delivered on {{.DeliveredAt.Format "Jan 2, 2006 15:04"}}{{if .RiderName}} by {{.RiderName}}{{end}}.</p>
<p>Thank you for shopping with us.</p>
{{template "close"}}{{end}}

{{define "delivery_otp"}}{{template "open"}}
<p>Hello {{.Name}},</p>
<p>Your rider is at your door with order <strong>{{.OrderNumber}}</strong>. Share this code with them to confirm delivery:</p>
<p style="font-size:28px;letter-spacing:6px"><strong>{{.Code}}</strong></p>
<p>The code expires in 10 minutes.</p>
{{template "close"}}{{end}}

{{define "email_verification"}}{{template "open"}}
<p>Hello {{.Name}},</p>
<p>Confirm your email address to activate your account.</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>The link expires in 10 minutes.</p>
{{template "close"}}{{end}}

{{define "magic_link"}}{{template "open"}}
<p>Hello {{.Name}},</p>
<p>Use the link below to sign in. It works once and expires in 10 minutes.</p>
<p><a href="{{.Link}}">Sign in to Aso Oke</a></p>
{{template "close"}}{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// OrderStatusSubject is the subject line of every status update email.
func OrderStatusSubject(orderNumber string) string {
	return fmt.Sprintf("Your Order %s Status Update", orderNumber)
}

func OrderStatusMessage(ev OrderStatusEvent) (mailer.Message, error) {
	html, err := render(string(enums.NotificationTypeOrderStatus), ev)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      ev.Email,
		ToName:  ev.CustomerName,
		Subject: OrderStatusSubject(ev.OrderNumber),
		HTML:    html,
		Text:    fmt.Sprintf("Your order %s is now %s. %s", ev.OrderNumber, ev.Status.Label(), ev.Description),
	}, nil
}

func DeliveryConfirmedMessage(ev DeliveryConfirmedEvent) (mailer.Message, error) {
	html, err := render(string(enums.NotificationTypeDeliveryConfirmation), ev)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      ev.Email,
		ToName:  ev.CustomerName,
		Subject: fmt.Sprintf("Your Order %s Has Been Delivered", ev.OrderNumber),
		HTML:    html,
		Text:    fmt.Sprintf("Your order %s has been delivered.", ev.OrderNumber),
	}, nil
}

func DeliveryOTPMessage(email, name, orderNumber string, code int) (mailer.Message, error) {
	html, err := render(string(enums.NotificationTypeDeliveryOTP), map[string]any{"Name": name, "OrderNumber": orderNumber, "Code": code})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("Delivery code for order %s", orderNumber),
		HTML:    html,
		Text:    fmt.Sprintf("Your delivery code for order %s is %06d. It expires in 10 minutes.", orderNumber, code),
	}, nil
}

func VerificationMessage(email, name, link string) (mailer.Message, error) {
	html, err := render(string(enums.NotificationTypeEmailVerification), map[string]any{"Name": name, "Link": link})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      email,
		ToName:  name,
		Subject: "Verify your Aso Oke account",
		HTML:    html,
		Text:    "Verify your email address: " + link,
	}, nil
}

func MagicLinkMessage(email, name, link string) (mailer.Message, error) {
	html, err := render(string(enums.NotificationTypeMagicLink), map[string]any{"Name": name, "Link": link})
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      email,
		ToName:  name,
		Subject: "Your Aso Oke sign-in link",
		HTML:    html,
		Text:    "Sign in to Aso Oke: " + link,
	}, nil
}

// Render turns a queued envelope into the email it stands for.
func Render(env Envelope) (mailer.Message, error) {
	switch env.Type {
	case enums.NotificationTypeOrderStatus:
		if env.OrderStatus == nil {
			return mailer.Message{}, fmt.Errorf("order status payload missing")
		}
		return OrderStatusMessage(*env.OrderStatus)
	case enums.NotificationTypeDeliveryConfirmation:
		if env.DeliveryConfirmed == nil {
			return mailer.Message{}, fmt.Errorf("delivery payload missing")
		}
		return DeliveryConfirmedMessage(*env.DeliveryConfirmed)
	default:
		return mailer.Message{}, fmt.Errorf("notification type %q is not queued", env.Type)
	}
}
