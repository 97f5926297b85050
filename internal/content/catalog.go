// Package content generates simulated videos, comments and viewer engagement.
package content

import (
	"errors"
	"strings"
)

// VideoTemplate produces titles and descriptions by substituting {topic}.
type VideoTemplate struct {
	Title       string
	Description string
	Topics      []string
}

// Catalog is the fixed material content is generated from. It is immutable
// once built; accessors never expose the backing slices.
type Catalog struct {
	templates []VideoTemplate
	authors   []string
	tones     []string
	fallback  string
}

// NewCatalog builds a catalog from copies of the given material.
// fallback may reference {tone} and {title}.
func NewCatalog(templates []VideoTemplate, authors, tones []string, fallback string) (Catalog, error) {
	if len(templates) == 0 || len(authors) == 0 || len(tones) == 0 {
		return Catalog{}, errors.New("catalog needs at least one template, author and tone")
	}
	ts := make([]VideoTemplate, len(templates))
	for i, t := range templates {
		if len(t.Topics) == 0 {
			return Catalog{}, errors.New("catalog template " + t.Title + " has no topics")
		}
		t.Topics = append([]string(nil), t.Topics...)
		ts[i] = t
	}
	return Catalog{
		templates: ts,
		authors:   append([]string(nil), authors...),
		tones:     append([]string(nil), tones...),
		fallback:  fallback,
	}, nil
}

// DefaultCatalog returns the built-in tech-channel catalog.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(
		[]VideoTemplate{
			{
				Title:       "Amazing Python Tutorial: {topic}",
				Description: "Learn {topic} in this comprehensive tutorial. Perfect for beginners and advanced developers alike!",
				Topics:      []string{"Django Rest Framework", "Async Programming", "Data Science", "Machine Learning", "Web Scraping", "APIs"},
			},
			{
				Title:       "Daily Coding Challenge: {topic}",
				Description: "Today's coding challenge focuses on {topic}. Can you solve it?",
				Topics:      []string{"Binary Trees", "Dynamic Programming", "Algorithms", "System Design", "Database Optimization"},
			},
			{
				Title:       "Tech News Update: {topic}",
				Description: "Latest updates about {topic} in the tech world. Stay informed!",
				Topics:      []string{"AI Developments", "Cybersecurity", "Cloud Computing", "Mobile Development", "DevOps"},
			},
			{
				Title:       "Building Projects with {topic}",
				Description: "Step-by-step guide to building amazing projects using {topic}.",
				Topics:      []string{"React", "Node.js", "Docker", "Kubernetes", "Microservices"},
			},
		},
		[]string{
			"TechEnthusiast2024", "CodeMaster", "LearnWithMe", "DevLife", "PythonGuru",
			"WebDevPro", "DataScientist", "AIExplorer", "CloudExpert", "StartupFounder",
			"IndieHacker", "OpenSourceFan", "CodingBootcamp", "SoftwareArchitect", "MLEngineer",
		},
		[]string{"friendly", "excited", "thoughtful", "appreciative", "curious", "critical"},
		"Great {tone} video about {title}! Thanks for sharing.",
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Authors returns a copy of the author roster.
func (c Catalog) Authors() []string { return append([]string(nil), c.authors...) }

// Tones returns a copy of the tone set.
func (c Catalog) Tones() []string { return append([]string(nil), c.tones...) }

// Templates returns the number of video templates.
func (c Catalog) Templates() int { return len(c.templates) }

func (c Catalog) video(r Rand) (title, description string) {
	t := c.templates[r.IntN(len(c.templates))]
	topic := t.Topics[r.IntN(len(t.Topics))]
	return strings.ReplaceAll(t.Title, "{topic}", topic), strings.ReplaceAll(t.Description, "{topic}", topic)
}

func (c Catalog) author(r Rand) string { return c.authors[r.IntN(len(c.authors))] }

func (c Catalog) tone(r Rand) string { return c.tones[r.IntN(len(c.tones))] }

func (c Catalog) fallbackComment(tone, title string) string {
	return strings.NewReplacer("{tone}", tone, "{title}", title).Replace(c.fallback)
}
