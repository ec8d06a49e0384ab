// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan builds structured literature-review plans: suggested
// PubMed queries, guiding questions, and an ordered sequence of tool
// invocations to work through.
// See docs/ARCHITECTURE § Research Plans.
package plan

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"go.yaml.in/yaml/v3"
)

// Step is one recommended action in a plan, named after the tool that
// carries it out.
type Step struct {
	Title string `yaml:"title"`
	Tool  string `yaml:"tool"`
	Args  string `yaml:"args"`
	Notes string `yaml:"notes,omitempty"`
}

// Plan is a literature-review plan for a topic.
type Plan struct {
	Topic       string    `yaml:"topic"`
	CreatedAt   time.Time `yaml:"created_at"`
	Questions   []string  `yaml:"questions"`
	SearchTerms []string  `yaml:"search_terms"`
	Steps       []Step    `yaml:"steps"`
}

// Options tune plan generation.
type Options struct {
	// FocusAreas narrow the topic; each area gets its own fielded query
	// and guiding question.
	FocusAreas []string

	// TrendYears is the width of the publication-trend window (default 10).
	TrendYears int
}

const defaultTrendYears = 10

// Build assembles a plan for topic. It is deterministic apart from the
// timestamp: the same topic and options produce the same queries and
// steps.
func Build(topic string, opts Options) (*Plan, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	years := opts.TrendYears
	if years <= 0 {
		years = defaultTrendYears
	}

	var focus []string
	for _, f := range opts.FocusAreas {
		if f = strings.TrimSpace(f); f != "" {
			focus = append(focus, f)
		}
	}

	p := &Plan{
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
		Questions: []string{
			fmt.Sprintf("What is the current state of research on %s?", topic),
			fmt.Sprintf("Which groups and journals publish most on %s?", topic),
			fmt.Sprintf("How has publication volume on %s developed over the last %d years?", topic, years),
		},
		SearchTerms: []string{
			topic,
			fmt.Sprintf("%s AND review[Publication Type]", topic),
		},
	}
	for _, f := range focus {
		p.Questions = append(p.Questions, fmt.Sprintf("What role does %s play in %s?", f, topic))
		p.SearchTerms = append(p.SearchTerms, fmt.Sprintf("%s AND %s[Title/Abstract]", topic, f))
	}

	now := time.Now().Year()
	p.Steps = []Step{
		{
			Title: "Survey the field",
			Tool:  "search_articles",
			Args:  fmt.Sprintf("query=%q, sort=relevance", topic),
			Notes: "Start broad; note recurring authors and journals.",
		},
		{
			Title: "Read the reviews first",
			Tool:  "search_articles",
			Args:  fmt.Sprintf("query=%q", p.SearchTerms[1]),
			Notes: "Reviews map the territory faster than primary articles.",
		},
	}
	for _, f := range focus {
		p.Steps = append(p.Steps, Step{
			Title: fmt.Sprintf("Narrow to %s", f),
			Tool:  "search_articles",
			Args:  fmt.Sprintf("query=%q", fmt.Sprintf("%s AND %s[Title/Abstract]", topic, f)),
		})
	}
	p.Steps = append(p.Steps,
		Step{
			Title: "Check the publication trend",
			Tool:  "publication_trend",
			Args:  fmt.Sprintf("query=%q, from_year=%d, to_year=%d", topic, now-years+1, now),
			Notes: "A rising curve means fresher reviews exist; a flat one means the classics still hold.",
		},
		Step{
			Title: "Expand from the best hits",
			Tool:  "find_related_articles",
			Args:  "article_id=<PMID of a key article>, relationship=similar",
			Notes: "Repeat for the two or three most central articles.",
		},
		Step{
			Title: "Follow the citations forward",
			Tool:  "find_related_articles",
			Args:  "article_id=<PMID of a key article>, relationship=cited_by",
		},
		Step{
			Title: "Read abstracts in depth",
			Tool:  "get_abstract",
			Args:  "article_ids=<PMIDs of the shortlist>",
		},
	)

	return p, nil
}

var markdownTemplate = template.Must(template.New("plan").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`# Research plan: {{.Topic}}

Created {{.CreatedAt.Format "2006-01-02"}}.

## Guiding questions
{{range .Questions}}
- {{.}}
{{- end}}

## Suggested queries
{{range .SearchTerms}}
- ` + "`{{.}}`" + `
{{- end}}

## Steps
{{range $i, $s := .Steps}}
{{inc $i}}. **{{$s.Title}}**: {{$s.Tool}}({{$s.Args}}){{if $s.Notes}}
   {{$s.Notes}}{{end}}
{{- end}}
`))

// Markdown renders the plan as a markdown document.
func (p *Plan) Markdown(w io.Writer) error {
	return markdownTemplate.Execute(w, p)
}

// EncodeYAML writes the plan as YAML.
func (p *Plan) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(p)
}
