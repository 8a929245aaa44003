package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Verify your CyberLearn account</h2>
  <p>Hi {{.Name}},</p>
  <p>Your one-time verification code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>The code expires in {{.ValidFor}}. If you did not sign up, you can ignore this email.</p>
</body>
</html>`))

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Reset your CyberLearn password</h2>
  <p>Hi {{.Name}},</p>
  <p><a href="{{.Link}}">Choose a new password</a></p>
  <p>The link expires in {{.ValidFor}}. If you did not ask for a reset, you can ignore this email.</p>
</body>
</html>`))

type otpData struct {
	Name     string
	Code     string
	ValidFor string
}

type resetData struct {
	Name     string
	Link     string
	ValidFor string
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// humanDuration renders whole minutes, e.g. "15 minutes".
func humanDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func displayName(fullName string) string {
	if fullName == "" {
		return "there"
	}
	return fullName
}
