// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// trialsAPIBase is the ClinicalTrials.gov Study Fields endpoint. Declared
// as a var so tests can substitute an httptest server.
var trialsAPIBase = "https://clinicaltrials.gov/api/query/study_fields"

// DefaultTrialFields is the fixed field vocabulary requested from the Study
// Fields API when the configuration does not name its own.
var DefaultTrialFields = []string{
	"NCTId",
	"BriefTitle",
	"OfficialTitle",
	"Condition",
	"InterventionName",
	"OverallStatus",
	"StudyType",
	"Phase",
	"EnrollmentCount",
	"StartDate",
	"CompletionDate",
	"LocationCountry",
}

// TrialsClient fetches study metadata from the ClinicalTrials.gov Study
// Fields API in ranked pages.
type TrialsClient struct {
	Client  *http.Client
	Config  types.TrialsConfig
	limiter *rate.Limiter
}

// NewTrialsClient builds a client with the configured timeout and a rate
// limiter derived from the configured request interval.
func NewTrialsClient(cfg types.TrialsConfig) *TrialsClient {
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = types.DefaultTrialsConfig().RequestInterval
	}
	return &TrialsClient{
		Client:  &http.Client{Timeout: cfg.Timeout},
		Config:  cfg,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Fetch retrieves up to cfg.MaxResults study records matching the search
// expression, paging with min_rnk/max_rnk. Progress lines go to w. Paging
// stops when a page comes back short or empty.
func (c *TrialsClient) Fetch(ctx context.Context, expr string, w io.Writer) (types.TrialsFile, error) {
	expr = normalizeExpr(expr)
	if expr == "" {
		return types.TrialsFile{}, fmt.Errorf("empty search expression")
	}

	maxResults := c.Config.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultTrialsConfig().MaxResults
	}
	batch := c.Config.BatchSize
	if batch <= 0 || batch > 100 {
		batch = 100
	}
	fields := c.Config.Fields
	if len(fields) == 0 {
		fields = DefaultTrialFields
	}
	fieldList := strings.Join(fields, ",")

	// Start non-nil so a zero-result run serializes as [].
	studies := make([]types.TrialRecord, 0, batch)
	start := 1
	for len(studies) < maxResults {
		if err := c.limiter.Wait(ctx); err != nil {
			return types.TrialsFile{}, err
		}

		end := start + batch - 1
		if end > maxResults {
			end = maxResults
		}

		params := url.Values{
			"expr":    {expr},
			"fields":  {fieldList},
			"min_rnk": {fmt.Sprintf("%d", start)},
			"max_rnk": {fmt.Sprintf("%d", end)},
			"fmt":     {"json"},
		}

		page, err := c.fetchPage(ctx, params)
		if err != nil {
			return types.TrialsFile{}, err
		}
		if len(page) == 0 {
			break
		}
		studies = append(studies, page...)
		fmt.Fprintf(w, "Fetched %d studies (rank %d-%d)\n", len(page), start, end)

		// A short page means the result set is exhausted.
		if len(page) < end-start+1 {
			break
		}
		start = end + 1
	}

	if len(studies) > maxResults {
		studies = studies[:maxResults]
	}

	return types.TrialsFile{
		Provenance: types.CollectionProvenance{
			Source:       types.SourceClinicalTrials,
			APIURL:       trialsAPIBase,
			Query:        expr,
			Fields:       fieldList,
			RequestedMax: maxResults,
			FetchedCount: len(studies),
			GeneratedAt:  nowUTC().Format("2006-01-02T15:04:05Z07:00"),
		},
		Studies: studies,
	}, nil
}

// fetchPage issues one Study Fields request and decodes its records.
func (c *TrialsClient) fetchPage(ctx context.Context, params url.Values) ([]types.TrialRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trialsAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("study fields request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("study fields API returned HTTP %d", resp.StatusCode)
	}

	var sfr studyFieldsResponse
	if err := json.NewDecoder(resp.Body).Decode(&sfr); err != nil {
		return nil, fmt.Errorf("parsing study fields response: %w", err)
	}
	return sfr.StudyFieldsResponse.StudyFields, nil
}

// normalizeExpr converts plus-joined expressions produced by some shells
// (e.g. "aging+OR+longevity") back into space-separated form. Expressions
// that already contain spaces are left alone.
func normalizeExpr(expr string) string {
	if strings.Contains(expr, "+") && !strings.Contains(expr, " ") {
		return strings.ReplaceAll(expr, "+", " ")
	}
	return expr
}

// Study Fields API JSON structures.
type studyFieldsResponse struct {
	StudyFieldsResponse studyFieldsBody `json:"StudyFieldsResponse"`
}

type studyFieldsBody struct {
	NStudiesFound    int                 `json:"NStudiesFound"`
	MinRank          int                 `json:"MinRank"`
	MaxRank          int                 `json:"MaxRank"`
	NStudiesReturned int                 `json:"NStudiesReturned"`
	StudyFields      []types.TrialRecord `json:"StudyFields"`
}
