package notifier

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
)

//go:embed templates/*
var templateFS embed.FS

// Templates holds parsed email templates.
type Templates struct {
	html  *htmltemplate.Template
	plain *template.Template
}

// TemplateData contains data for template rendering.
type TemplateData struct {
	Title       string
	PatientName string
	PatientID   string
	Level       string
	LevelColor  string
	Reason      string
	Severity    string
	Symptoms    []string
	Timestamp   string
}

// LoadTemplates loads embedded email templates.
func LoadTemplates() (*Templates, error) {
	htmlTmpl, err := htmltemplate.New("notification.html").
		Funcs(htmltemplate.FuncMap{"upper": strings.ToUpper, "join": strings.Join}).
		ParseFS(templateFS, "templates/notification.html")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	plainTmpl, err := template.New("notification.txt").
		Funcs(template.FuncMap{"upper": strings.ToUpper, "join": strings.Join}).
		ParseFS(templateFS, "templates/notification.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}

	return &Templates{html: htmlTmpl, plain: plainTmpl}, nil
}

// RenderHTML renders the HTML email body.
func (t *Templates) RenderHTML(data *TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.html.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPlain renders the plain text email body.
func (t *Templates) RenderPlain(data *TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.plain.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NotificationToTemplateData converts a notification to template data.
func NotificationToTemplateData(n *Notification) TemplateData {
	return TemplateData{
		Title:       n.Title(),
		PatientName: n.PatientName,
		PatientID:   n.PatientID,
		Level:       string(n.Level),
		LevelColor:  levelColor(n.Level),
		Reason:      n.Reason,
		Severity:    n.Severity,
		Symptoms:    n.Symptoms,
		Timestamp:   formatTime(n.Timestamp),
	}
}
