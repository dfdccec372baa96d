package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: {{.Accent}};">{{.Title}}</h2>
        <p>{{.Greeting}}</p>
        <p>{{.Lead}}</p>
        {{- if .Reason}}
        <div style="background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Reason:</strong> {{.Reason}}</p>
        </div>
        {{- end}}
        {{- if .Comments}}
        <p><strong>Reviewer comments:</strong> {{.Comments}}</p>
        {{- end}}
        {{- if .Code}}
        <div style="text-align: center; margin: 30px 0; font-size: 28px; letter-spacing: 6px;"><strong>{{.Code}}</strong></div>
        {{- end}}
        {{- if .LinkURL}}
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.LinkURL}}" style="background-color: {{.Accent}}; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">{{.LinkText}}</a>
        </div>
        {{- end}}
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`))

type page struct {
	Title    string
	Accent   string
	Greeting string
	Lead     string
	Reason   string
	Comments string
	Code     string
	LinkURL  string
	LinkText string
}

// Decision describes a moderation outcome mailed to a submitter.
type Decision struct {
	RecipientName string
	EntityLabel   string
	ItemName      string
	Approved      bool
	Reason        string
	Comments      string
	DashboardURL  string
}

// RenderDecision returns the subject and HTML body for a moderation outcome.
func RenderDecision(d Decision) (string, string, error) {
	p := page{
		Greeting: greeting(d.RecipientName),
		Comments: d.Comments,
	}
	if d.Approved {
		p.Title = fmt.Sprintf("Your %s submission was approved", d.EntityLabel)
		p.Accent = "#2e7d32"
		p.Lead = fmt.Sprintf("Good news: \"%s\" has been reviewed and is now live on the marketplace.", d.ItemName)
	} else {
		p.Title = fmt.Sprintf("Your %s submission was not approved", d.EntityLabel)
		p.Accent = "#c62828"
		p.Lead = fmt.Sprintf("\"%s\" was reviewed and could not be approved.", d.ItemName)
		p.Reason = d.Reason
	}
	if d.DashboardURL != "" {
		p.LinkURL = d.DashboardURL
		p.LinkText = "View your submissions"
	}

	body, err := render(p)
	if err != nil {
		return "", "", err
	}
	return p.Title, body, nil
}

// RenderVerificationCode returns the subject and HTML body of a one-time code email.
func RenderVerificationCode(code string, ttlMinutes int) (string, string, error) {
	p := page{
		Title:    "Verify your email address",
		Accent:   "#1565c0",
		Greeting: "Hello,",
		Lead:     fmt.Sprintf("Use this code to confirm your website submission. It expires in %d minutes.", ttlMinutes),
		Code:     code,
	}
	body, err := render(p)
	if err != nil {
		return "", "", err
	}
	return p.Title, body, nil
}

func render(p page) (string, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}
