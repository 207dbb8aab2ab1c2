// Package webscraper fetches a web page and converts its main content
// to markdown, so the agent can read sources the search tool found.
package webscraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// ToolName is the name the scraper registers under.
const ToolName = "fetch_webpage"

// Input selects the page to fetch.
type Input struct {
	schema.Base
	// URL of the webpage to scrape.
	URL string `json:"url" validate:"required,url"`
	// IncludeLinks Whether to preserve hyperlinks in the markdown output.
	IncludeLinks bool `json:"include_links,omitempty"`
}

func NewInput(link string, includeLinks bool) *Input {
	return &Input{
		URL:          link,
		IncludeLinks: includeLinks,
	}
}

// Metadata describes the fetched page.
type Metadata struct {
	// Title is the title of the webpage.
	Title string `json:"title,omitempty"`
	// Author is the author of the webpage content.
	Author string `json:"author,omitempty"`
	// Description is the meta description of the webpage.
	Description string `json:"description,omitempty"`
	// SiteName is the name of the website.
	SiteName string `json:"sitename,omitempty"`
	// Domain is the domain name of the website.
	Domain string `json:"domain,omitempty"`
}

// Output carries the page content in markdown plus its metadata.
type Output struct {
	schema.Base
	// Content The scraped content in markdown format.
	Content string `json:"content,omitempty"`
	// Metadata is metadata about the scraped webpage.
	Metadata *Metadata `json:"metadata,omitempty"`
}

func NewOutput(content string, metadata *Metadata) *Output {
	return &Output{
		Content:  content,
		Metadata: metadata,
	}
}

type Config struct {
	tools.Config
	// userAgent User agent string to use for requests.
	userAgent string
	// maxContentLength Maximum page size in bytes to read.
	maxContentLength int64
	httpClient       *http.Client
}

// Tool fetches a page and renders its main content as markdown.
type Tool struct {
	Config
}

func New(opts ...Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("FetchWebpageTool")
	}
	if ret.userAgent == "" {
		ret.userAgent = DefaultUserAgent
	}
	if ret.maxContentLength == 0 {
		ret.maxContentLength = 1_000_000
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

// Run fetches the page, strips boilerplate and converts the remaining
// content to markdown.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	parsedURL, err := url.ParseRequestURI(input.URL)
	if err != nil {
		return nil, err
	}
	doc, err := t.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	mainContent := t.extractMainContent(doc)
	convertOpts := []converter.ConvertOptionFunc{
		converter.WithDomain(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)),
	}
	markdown, err := htmltomarkdown.ConvertString(mainContent, convertOpts...)
	if err != nil {
		return nil, err
	}
	if !input.IncludeLinks {
		markdown = stripLinks(markdown)
	}
	markdown = cleanMarkdownContent(markdown)
	meta := new(Metadata)
	meta.Domain = parsedURL.Host
	t.extractMetadata(doc, meta)
	return NewOutput(markdown, meta), nil
}

func (t *Tool) fetch(ctx context.Context, input *Input) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", DefaultAccept)
	httpReq.Header.Set("Connection", "keep-alive")
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response fetching %s: %d", input.URL, httpResp.StatusCode)
	}
	return goquery.NewDocumentFromReader(io.LimitReader(httpResp.Body, t.maxContentLength))
}

// Extracts metadata from the webpage
func (t *Tool) extractMetadata(doc *goquery.Document, meta *Metadata) {
	meta.Title = doc.Find("head title").Text()
	meta.Author, _ = doc.Find("meta[name='author']").Attr("content")
	meta.Description, _ = doc.Find("meta[name='description']").Attr("content")
	meta.SiteName, _ = doc.Find("meta[property='og:site_name']").Attr("content")
}

// extractMainContent extracts the main content from the webpage using custom heuristics
func (t *Tool) extractMainContent(doc *goquery.Document) string {
	for _, tag := range []string{"script", "style", "nav", "header", "footer"} {
		doc.Find(tag).Remove()
	}
	contentCandidates := []string{
		"main",
		"#content, #main",
		".content, .main",
		"article",
		"body",
	}
	var mainContent string
	for _, selector := range contentCandidates {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			if txt, err := sel.Html(); err == nil {
				mainContent = txt
				break
			}
		}
	}
	if mainContent == "" {
		mainContent, _ = doc.Html()
	}
	return mainContent
}

var linkRe = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

// stripLinks replaces markdown links with their visible text.
func stripLinks(content string) string {
	return linkRe.ReplaceAllString(content, "$1")
}

// Cleans up the markdown content by removing excessive whitespace and normalizing formatting
func cleanMarkdownContent(content string) string {
	re := regexp.MustCompile(`\r?\n{2,}`)
	content = re.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	content = strings.TrimSpace(content) + "\n"
	return content
}

// Spec declares the scraper to the model.
func Spec() tools.Spec {
	return tools.Spec{
		Name:        ToolName,
		Description: "Fetches a webpage and returns its main content as markdown.",
		Params: []tools.Param{
			{Name: "url", Type: tools.TypeString, Description: "URL of the webpage to fetch.", Required: true},
			{Name: "include_links", Type: tools.TypeBoolean, Description: "Whether to preserve hyperlinks in the markdown output.", Default: false},
		},
	}
}
