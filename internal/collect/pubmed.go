// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute httptest
// servers.
var (
	pubmedEsearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedEfetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// PubmedClient fetches article metadata and abstracts from NCBI E-utilities:
// a paged esearch for PMIDs followed by batched efetch calls for records.
type PubmedClient struct {
	Client  *http.Client
	Config  types.PubmedConfig
	limiter *rate.Limiter
}

// NewPubmedClient builds a client with the configured timeout and a rate
// limiter derived from the configured request interval (NCBI allows at most
// 3 requests per second without an API key).
func NewPubmedClient(cfg types.PubmedConfig) *PubmedClient {
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = types.DefaultPubmedConfig().RequestInterval
	}
	return &PubmedClient{
		Client:  &http.Client{Timeout: cfg.Timeout},
		Config:  cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Fetch searches PubMed for term, retrieves up to cfg.MaxResults article
// records, and returns them with provenance. Progress lines go to w.
// Articles that fail to parse are skipped; the rest of the batch continues.
func (c *PubmedClient) Fetch(ctx context.Context, term string, w io.Writer) (types.PubmedFile, error) {
	if strings.TrimSpace(term) == "" {
		return types.PubmedFile{}, fmt.Errorf("empty search term")
	}

	maxResults := c.Config.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultPubmedConfig().MaxResults
	}
	batch := c.Config.BatchSize
	if batch <= 0 || batch > 100 {
		batch = 100
	}

	ids, err := c.searchIDs(ctx, term, maxResults, batch)
	if err != nil {
		return types.PubmedFile{}, err
	}
	fmt.Fprintf(w, "esearch returned %d PMIDs\n", len(ids))

	// Start non-nil so a zero-result run serializes as [].
	articles := make([]types.PubmedArticle, 0, len(ids))
	for i := 0; i < len(ids); i += batch {
		end := i + batch
		if end > len(ids) {
			end = len(ids)
		}
		page, err := c.fetchArticles(ctx, ids[i:end])
		if err != nil {
			return types.PubmedFile{}, err
		}
		articles = append(articles, page...)
		fmt.Fprintf(w, "efetch parsed %d articles (%d/%d PMIDs)\n", len(page), end, len(ids))
	}

	return types.PubmedFile{
		Provenance: types.CollectionProvenance{
			Source:       types.SourcePubmed,
			EsearchURL:   pubmedEsearchBase,
			EfetchURL:    pubmedEfetchBase,
			Query:        term,
			RequestedMax: maxResults,
			FetchedCount: len(articles),
			GeneratedAt:  nowUTC().Format("2006-01-02T15:04:05Z07:00"),
		},
		Articles: articles,
	}, nil
}

// searchIDs pages through esearch until maxResults PMIDs are collected or a
// page comes back short.
func (c *PubmedClient) searchIDs(ctx context.Context, term string, maxResults, batch int) ([]string, error) {
	var ids []string
	start := 0
	for len(ids) < maxResults {
		retmax := batch
		if remaining := maxResults - len(ids); remaining < retmax {
			retmax = remaining
		}

		params := url.Values{
			"db":       {"pubmed"},
			"term":     {term},
			"retstart": {fmt.Sprintf("%d", start)},
			"retmax":   {fmt.Sprintf("%d", retmax)},
			"retmode":  {"json"},
		}
		if c.Config.Email != "" {
			params.Set("email", c.Config.Email)
		}

		body, err := c.get(ctx, pubmedEsearchBase, params)
		if err != nil {
			return nil, fmt.Errorf("esearch: %w", err)
		}

		var er esearchResponse
		if err := json.Unmarshal(body, &er); err != nil {
			return nil, fmt.Errorf("parsing esearch response: %w", err)
		}
		page := er.ESearchResult.IDList
		if len(page) == 0 {
			break
		}
		ids = append(ids, page...)
		if len(page) < retmax {
			break
		}
		start += len(page)
	}
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// fetchArticles retrieves one efetch batch of records as XML and parses them.
func (c *PubmedClient) fetchArticles(ctx context.Context, pmids []string) ([]types.PubmedArticle, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}
	if c.Config.Email != "" {
		params.Set("email", c.Config.Email)
	}

	body, err := c.get(ctx, pubmedEfetchBase, params)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}
	return parseEfetchXML(body)
}

// get issues one rate-limited E-utilities request and returns its body.
func (c *PubmedClient) get(ctx context.Context, base string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseEfetchXML extracts article records from a PubmedArticleSet document.
// Records missing a PMID or title are skipped rather than failing the batch.
func parseEfetchXML(data []byte) ([]types.PubmedArticle, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing efetch XML: %w", err)
	}

	var articles []types.PubmedArticle
	for _, pa := range set.Articles {
		a := types.PubmedArticle{
			PMID:    strings.TrimSpace(pa.MedlineCitation.PMID),
			Title:   flattenMarkup(pa.MedlineCitation.Article.ArticleTitle.Inner),
			Journal: strings.TrimSpace(pa.MedlineCitation.Article.Journal.Title),
			Authors: []string{},
		}
		if a.PMID == "" || a.Title == "" {
			continue
		}

		var parts []string
		for _, at := range pa.MedlineCitation.Article.Abstract.Texts {
			if text := flattenMarkup(at.Inner); text != "" {
				parts = append(parts, text)
			}
		}
		a.Abstract = strings.Join(parts, "\n\n")

		pd := pa.MedlineCitation.Article.Journal.JournalIssue.PubDate
		var dateParts []string
		for _, p := range []string{pd.Year, pd.Month, pd.Day} {
			if p != "" {
				dateParts = append(dateParts, p)
			}
		}
		a.PubDate = strings.Join(dateParts, "-")

		for _, author := range pa.MedlineCitation.Article.AuthorList.Authors {
			switch {
			case author.LastName != "" && author.ForeName != "":
				a.Authors = append(a.Authors, author.ForeName+" "+author.LastName)
			case author.CollectiveName != "":
				a.Authors = append(a.Authors, author.CollectiveName)
			}
		}

		for _, id := range pa.PubmedData.ArticleIDList.IDs {
			if id.IDType == "doi" {
				a.DOI = strings.TrimSpace(id.Value)
			}
		}

		articles = append(articles, a)
	}
	return articles, nil
}

var markupTagRE = regexp.MustCompile(`<[^>]*>`)

// flattenMarkup reduces an element's inner XML to plain text. Titles and
// abstract sections carry inline markup (<i>, <sup>, MathML) which is
// stripped; entity references are decoded.
func flattenMarkup(inner string) string {
	text := markupTagRE.ReplaceAllString(inner, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

// E-utilities response structures.
type esearchResponse struct {
	ESearchResult esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
	PubmedData      pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    string         `xml:"PMID"`
	Article articleElement `xml:"Article"`
}

type articleElement struct {
	ArticleTitle innerText       `xml:"ArticleTitle"`
	Abstract     abstractElement `xml:"Abstract"`
	Journal      journalElement  `xml:"Journal"`
	AuthorList   authorList      `xml:"AuthorList"`
}

type innerText struct {
	Inner string `xml:",innerxml"`
}

type abstractElement struct {
	Texts []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

type journalElement struct {
	Title        string       `xml:"Title"`
	JournalIssue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type authorList struct {
	Authors []authorElement `xml:"Author"`
}

type authorElement struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedData struct {
	ArticleIDList articleIDList `xml:"ArticleIdList"`
}

type articleIDList struct {
	IDs []articleID `xml:"ArticleId"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}
