// Package scrape is the legacy transport flavor: it reads instrument detail
// from the provider's HTML pages and quote series from the JSONP chart
// endpoint, usually through a disk-cached fetcher.
package scrape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"onvista/internal/instrument"
)

// Page holds the fields scraped from an instrument detail page.
type Page struct {
	Name        string
	Symbol      string
	WKN         string
	Type        string
	Sector      string
	Markets     []string
	NotationIDs []string
}

// ParsePage extracts the instrument fields from a detail page with fixed
// structural queries. Extraction is all-or-nothing: the first required field
// whose query matches nothing fails the page with a FieldNotFoundError.
func ParsePage(html []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("scrape: parsing page: %w", err)
	}

	page := &Page{}
	doc.Find("div#exchangesLayer ul li a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		// Venue links carry the notation id as the value of their only
		// query parameter.
		_, id, ok := strings.Cut(href, "=")
		if !ok {
			return
		}
		page.Markets = append(page.Markets, name)
		page.NotationIDs = append(page.NotationIDs, id)
	})
	if len(page.NotationIDs) == 0 {
		return nil, &instrument.FieldNotFoundError{Field: "notations"}
	}

	details := doc.Find("div.WERTPAPIER_DETAILS dl")

	if page.Name, err = attrOf(doc.Find("a.INSTRUMENT").First(), "title", "name"); err != nil {
		return nil, err
	}
	if page.WKN, err = attrOf(details.Eq(0).Find("dd").Eq(0).Find("input"), "value", "wkn"); err != nil {
		return nil, err
	}
	if page.Symbol, err = textOf(details.Eq(1).Find("dd").Eq(0), "symbol"); err != nil {
		return nil, err
	}
	if page.Sector, err = textOf(details.Eq(1).Find("dd").Eq(1), "sector"); err != nil {
		return nil, err
	}
	if page.Type, err = parseType(doc); err != nil {
		return nil, err
	}
	return page, nil
}

// parseType digs the asset type out of the chart setup script: the text
// after the "type:" token up to the next comma, quotes stripped.
func parseType(doc *goquery.Document) (string, error) {
	script := doc.Find("article.CHART_GRAFIK script").First().Text()
	_, rest, ok := strings.Cut(script, "type: ")
	if !ok {
		return "", &instrument.FieldNotFoundError{Field: "type"}
	}
	typ, _, _ := strings.Cut(rest, ",")
	typ = strings.Trim(strings.TrimSpace(typ), "'\"")
	if typ == "" {
		return "", &instrument.FieldNotFoundError{Field: "type"}
	}
	return typ, nil
}

func textOf(sel *goquery.Selection, name string) (string, error) {
	if sel.Length() == 0 {
		return "", &instrument.FieldNotFoundError{Field: name}
	}
	text := strings.TrimSpace(sel.First().Text())
	if text == "" {
		return "", &instrument.FieldNotFoundError{Field: name}
	}
	return text, nil
}

func attrOf(sel *goquery.Selection, attr, name string) (string, error) {
	v, ok := sel.Attr(attr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", &instrument.FieldNotFoundError{Field: name}
	}
	return strings.TrimSpace(v), nil
}
