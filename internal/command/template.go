package command

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Template engine names a markdown node may declare in its header.
const (
	TemplateDefault = "default"
	TemplateGo      = "gotemplate"
)

// renderBody substitutes values into a command body with the selected
// engine. Values are stringified before substitution in both engines.
func renderBody(body string, values map[string]any, engineName string) (string, error) {
	switch engineName {
	case "", TemplateDefault:
		return renderDefault(body, stringifyValues(values)), nil
	case TemplateGo:
		return renderGoTemplate(body, stringifyValues(values))
	default:
		return "", fmt.Errorf("command: unknown template engine %q", engineName)
	}
}

// renderDefault replaces three bracket styles per key: {{{key}}} first so
// the plain {key} pass cannot chew through its braces, then ${key}, then
// {key}. Unknown keys leave their bracket text intact. Keys are processed in
// sorted order so rendering is deterministic.
func renderDefault(body string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := values[key]
		body = strings.ReplaceAll(body, "{{{"+key+"}}}", value)
		body = strings.ReplaceAll(body, "${"+key+"}", value)
		body = strings.ReplaceAll(body, "{"+key+"}", value)
	}
	return body
}

func renderGoTemplate(body string, values map[string]string) (string, error) {
	tmpl, err := template.New("command_body").Funcs(template.FuncMap{
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
	}).Option("missingkey=zero").Parse(body)
	if err != nil {
		return "", fmt.Errorf("command: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("command: render template: %w", err)
	}
	return buf.String(), nil
}

func stringifyValues(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		if value == nil {
			out[key] = ""
			continue
		}
		out[key] = fmt.Sprint(value)
	}
	return out
}
