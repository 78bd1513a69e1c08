package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/happyflights/flightbooking/config"
	"github.com/happyflights/flightbooking/internal/kafka"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

const timeLayout = "02 Jan 2006 15:04 MST"

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"when": func(e kafka.TicketEvent, field string) string {
		if field == "arrival" {
			return e.ArrivalTime.Format(timeLayout)
		}
		return e.DepartureTime.Format(timeLayout)
	},
}).Parse(`
{{define "ticket_confirmed"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h1>Flight Ticket Confirmation</h1>
<p>Dear {{.Event.PassengerName}} {{.Event.PassengerSurname}},</p>
<p>Thank you for booking with HappyFlights. Your flight has been confirmed!</p>
<h3>Ticket Information</h3>
<p><strong>Ticket ID:</strong> {{.Event.TicketID}}</p>
<p><strong>Seat:</strong> {{if .Event.SeatNumber}}{{.Event.SeatNumber}}{{else}}Automatically assigned at check-in{{end}}</p>
<h3>Flight Details</h3>
<p><strong>Flight Number:</strong> {{.Event.FlightID}}</p>
<p><strong>From:</strong> {{.Event.FromCity}}</p>
<p><strong>To:</strong> {{.Event.ToCity}}</p>
<p><strong>Departure:</strong> {{when .Event "departure"}}</p>
<p><strong>Arrival:</strong> {{when .Event "arrival"}}</p>
<p><strong>Important:</strong> Please arrive at the airport at least 2 hours before your departure time.</p>
<p>You can view your ticket anytime by visiting <a href="{{.BaseURL}}/confirmation/{{.Event.TicketID}}">your ticket page</a>.</p>
<p>Thank you for choosing HappyFlights!</p>
</div>{{end}}
{{define "flight_cancelled"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h1>Flight Cancelled</h1>
<p>Dear {{.Event.PassengerName}} {{.Event.PassengerSurname}},</p>
<p>We are sorry to inform you that flight {{.Event.FlightID}} from {{.Event.FromCity}} to {{.Event.ToCity}},
departing {{when .Event "departure"}}, has been cancelled.</p>
<p><strong>Ticket ID:</strong> {{.Event.TicketID}}</p>
<p><strong>Reason:</strong> {{.Event.Reason}}</p>
<p>Your ticket remains visible in your booking history.</p>
</div>{{end}}
`))

// Message is a rendered notification ready to be sent.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Compose renders the notification for event.
func Compose(event kafka.TicketEvent, baseURL string) (Message, error) {
	var subject string
	switch event.Type {
	case kafka.EventTicketConfirmed:
		subject = "Your Flight Ticket Confirmation - " + event.FlightID
	case kafka.EventFlightCancelled:
		subject = "Your Flight Has Been Cancelled - " + event.FlightID
	default:
		return Message{}, fmt.Errorf("unknown event type %q", event.Type)
	}

	var body bytes.Buffer
	data := struct {
		Event   kafka.TicketEvent
		BaseURL string
	}{event, strings.TrimRight(baseURL, "/")}
	if err := templates.ExecuteTemplate(&body, event.Type, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", event.Type, err)
	}
	return Message{To: event.Email, Subject: subject, HTML: body.String()}, nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	cfg  config.EmailConfig
	send sendFunc
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// Send delivers the notification for event. Without an SMTP host the message
// is only logged.
func (s *Sender) Send(ctx context.Context, event kafka.TicketEvent) error {
	msg, err := Compose(event, s.cfg.BaseURL)
	if err != nil {
		return err
	}

	log := logger.WithComponent("email").With(
		zap.String("type", event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("to", msg.To))

	if s.cfg.SMTPHost == "" {
		log.Info("smtp not configured, email logged only", zap.String("subject", msg.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	if err := s.send(addr, auth, envelopeAddress(s.cfg.From), []string{msg.To}, encode(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	log.Info("email sent")
	return nil
}

func encode(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}

// envelopeAddress extracts the bare address from a "Name <addr>" header value.
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}
