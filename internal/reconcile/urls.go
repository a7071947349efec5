package reconcile

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractURLs pulls the external URL references out of a page: image
// sources, hyperlink targets, and embedded-frame sources. Only absolute
// http(s) URLs count; order of first appearance is kept and duplicates
// collapse so each URL is probed once per file.
func ExtractURLs(content []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil
	}

	var urls []string
	seen := make(map[string]struct{})
	add := func(raw string, ok bool) {
		if !ok {
			return
		}
		raw = strings.TrimSpace(raw)
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return
		}
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		urls = append(urls, raw)
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		add(s.Attr("src"))
	})
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		add(s.Attr("href"))
	})
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		add(s.Attr("src"))
	})

	return urls
}
