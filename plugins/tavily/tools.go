package tavily

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
	"github.com/va6996/tripchat/tools"
)

// Searcher is the subset of Client the tool needs.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

type TravelInfoInput struct {
	Query       string `json:"query" description:"What to look up, e.g. 'visa on arrival rules' or 'festivals in October'"`
	Destination string `json:"destination,omitempty" description:"City or country the question is about"`
	Recent      bool   `json:"recent,omitempty" description:"Only use news from the last month (advisories, strikes, closures)"`
}

func (in TravelInfoInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Query, validation.Required, validation.Length(3, 300)),
	)
}

type TravelInfoSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type TravelInfoOutput struct {
	Query   string             `json:"query"`
	Answer  string             `json:"answer,omitempty"`
	Sources []TravelInfoSource `json:"sources"`
}

// TravelInfoTool answers questions the static catalog cannot, such as
// entry rules or current events.
type TravelInfoTool struct {
	searcher Searcher
}

func NewTravelInfoTool(searcher Searcher, registry *tools.Registry) *TravelInfoTool {
	t := &TravelInfoTool{searcher: searcher}
	if registry == nil {
		return t
	}
	tools.Define(registry, "search_travel_info",
		"Search the web for current travel information: entry and visa rules, local events, advisories and closures. Cite the returned sources.",
		t.Execute)
	return t
}

const maxSnippet = 400

func (t *TravelInfoTool) Execute(ctx context.Context, in *TravelInfoInput) (*TravelInfoOutput, error) {
	query := strings.TrimSpace(in.Query)
	if dest := strings.TrimSpace(in.Destination); dest != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(dest)) {
		query = fmt.Sprintf("%s %s", query, dest)
	}
	req := SearchRequest{Query: query, IncludeAnswer: true}
	if in.Recent {
		req.Topic = "news"
		req.TimeRange = "month"
	}

	resp, err := t.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return &TravelInfoOutput{
		Query:  query,
		Answer: resp.Answer,
		Sources: lo.Map(resp.Results, func(r SearchResult, _ int) TravelInfoSource {
			return TravelInfoSource{Title: r.Title, URL: r.URL, Snippet: truncate(r.Content, maxSnippet)}
		}),
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
