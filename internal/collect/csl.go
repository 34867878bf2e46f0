// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes collected PubMed articles as a CSL-YAML list to w.
func FormatCSL(articles []types.PubmedArticle, w io.Writer) error {
	items := make([]CSLItem, len(articles))
	for i, a := range articles {
		items[i] = toCSLItem(a)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a PubmedArticle to a CSLItem. The DOI is preferred as
// the item ID, falling back to the PMID.
func toCSLItem(a types.PubmedArticle) CSLItem {
	item := CSLItem{
		ID:             a.DOI,
		Type:           "article-journal",
		Title:          a.Title,
		ContainerTitle: a.Journal,
		Abstract:       a.Abstract,
		DOI:            a.DOI,
		PMID:           a.PMID,
	}
	if item.ID == "" {
		item.ID = "pmid-" + a.PMID
	}

	for _, name := range a.Authors {
		item.Author = append(item.Author, parseAuthorName(name))
	}

	if parts := parseDateParts(a.PubDate); len(parts) > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{parts}}
	}
	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names (collective authors) use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

// monthNumbers maps PubMed month abbreviations to date-part values.
var monthNumbers = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// parseDateParts converts a Year[-Month[-Day]] publication date into CSL
// date-parts. Months appear either as numbers or as English abbreviations.
// Parsing stops at the first part it cannot interpret.
func parseDateParts(pubDate string) []int {
	if pubDate == "" {
		return nil
	}
	var out []int
	for _, part := range strings.SplitN(pubDate, "-", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			m, ok := monthNumbers[part]
			if !ok {
				break
			}
			n = m
		}
		out = append(out, n)
	}
	return out
}
