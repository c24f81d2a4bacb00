package loader

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
)

type entry map[string]any

// text returns the display form of a JSON scalar, or def when absent.
func (e entry) text(key, def string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	if s, ok := metadata.Format(v); ok {
		return s
	}
	return def
}

// list returns the string items of an array field.
func (e entry) list(key string) []string {
	raw, _ := e[key].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, entry{"v": item}.text("v", ""))
	}
	return out
}

// setIfPresent copies a scalar into md unless it is missing.
func (e entry) setIfPresent(md metadata.Metadata, key string) {
	if v, ok := e[key]; ok && v != nil {
		md[key] = e.text(key, "")
	}
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}

func renderWorkHistory(job entry) (string, metadata.Metadata) {
	achievements := job.list("achievements")
	skills := job.list("skills")

	var b strings.Builder
	b.WriteString("Company: " + job.text("company", "N/A") + "\n")
	b.WriteString("Title: " + job.text("title", "N/A") + "\n")
	b.WriteString("Duration: " + job.text("duration", "N/A") + "\n\n")
	b.WriteString("Description:\n" + job.text("description", "") + "\n\n")
	b.WriteString("Key Achievements:\n" + bullets(achievements) + "\n\n")
	b.WriteString("Skills Applied:\n" + metadata.JoinList(skills))

	md := metadata.Metadata{
		"type":               string(WorkHistory),
		"skills":             metadata.JoinList(skills),
		"achievements_count": strconv.Itoa(len(achievements)),
	}
	for _, k := range []string{"company", "title", "duration"} {
		job.setIfPresent(md, k)
	}
	return strings.TrimSpace(b.String()), md
}

func renderProject(p entry) (string, metadata.Metadata) {
	achievements := p.list("achievements")
	tech := p.list("technologies")

	var b strings.Builder
	b.WriteString("Project: " + p.text("name", "N/A") + "\n")
	b.WriteString("Role: " + p.text("role", "N/A") + "\n")
	b.WriteString("Duration: " + p.text("duration", "N/A") + "\n\n")
	b.WriteString("Description:\n" + p.text("description", "") + "\n\n")
	b.WriteString("Technologies Used:\n" + metadata.JoinList(tech) + "\n\n")
	b.WriteString("Key Achievements:\n" + bullets(achievements))

	md := metadata.Metadata{
		"type":               "project",
		"technologies":       metadata.JoinList(tech),
		"achievements_count": strconv.Itoa(len(achievements)),
	}
	for _, k := range []string{"name", "role", "duration"} {
		p.setIfPresent(md, k)
	}
	return strings.TrimSpace(b.String()), md
}

func renderSkills(s entry) (string, metadata.Metadata) {
	category := s.text("category", "General")
	skills := s.list("skills")

	var b strings.Builder
	b.WriteString("Skill Category: " + category + "\n\n")
	b.WriteString("Skills:\n" + bullets(skills) + "\n\n")
	b.WriteString("Proficiency: " + s.text("proficiency_level", "Not specified") + "\n")
	b.WriteString("Experience: " + s.text("years_of_experience", "Not specified") + " years")

	md := metadata.Metadata{
		"type":                string(Skills),
		"category":            category,
		"skills":              metadata.JoinList(skills),
		"proficiency_level":   s.text("proficiency_level", ""),
		"years_of_experience": s.text("years_of_experience", ""),
	}
	return strings.TrimSpace(b.String()), md
}
