package notify

import (
	"strings"
	"testing"

	"github.com/i-m-alive/Visitor-Log-Book/internal/config"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmailConfig
		want bool
	}{
		{"full config", config.EmailConfig{Host: "smtp.example.com", Port: 465, User: "bot@example.com", Pass: "secret"}, true},
		{"no host", config.EmailConfig{User: "bot@example.com", Pass: "secret"}, false},
		{"no user", config.EmailConfig{Host: "smtp.example.com", Pass: "secret"}, false},
		{"no pass", config.EmailConfig{Host: "smtp.example.com", User: "bot@example.com"}, false},
		{"empty", config.EmailConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewMailer(tt.cfg).Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArrivalBody(t *testing.T) {
	body := arrivalBody("Jane Visitor", "Quarterly review", "555123456")

	for _, want := range []string{"Jane Visitor", "Quarterly review", "555123456", "reception"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}
