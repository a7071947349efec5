package article

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// Meta marker names shared between the generator and the extractor.
// A generated page carries one <meta name="..." content="..."> per field.
const (
	MarkerID        = "article-id"
	MarkerTitle     = "article-title"
	MarkerCategory  = "article-category"
	MarkerAuthor    = "article-author"
	MarkerDate      = "article-date"
	MarkerReadTime  = "article-read-time"
	MarkerExcerpt   = "article-excerpt"
	MarkerThumbnail = "article-thumbnail"
	MarkerBanner    = "article-banner"
	MarkerSource    = "article-source"
	MarkerTrending  = "article-trending"
	MarkerVideo     = "article-video"
	MarkerVideoURL  = "article-video-url"
	MarkerJob       = "article-job"
)

// Extract derives a Record from the content of one generated page.
// Each field comes from the first matching meta marker; a missing marker
// yields an empty string and boolean markers must be the literal "true".
// Extraction never fails: malformed input produces an empty (invalid)
// record, which the index builder skips with a diagnostic.
func Extract(filename string, content []byte) Record {
	rec := Record{Filename: filename}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return rec
	}

	marker := func(name string) string {
		val, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
		return val
	}

	rec.ID = marker(MarkerID)
	rec.Title = marker(MarkerTitle)
	rec.Category = marker(MarkerCategory)
	rec.Author = marker(MarkerAuthor)
	rec.PublishDate = marker(MarkerDate)
	rec.ReadTime = marker(MarkerReadTime)
	rec.Excerpt = marker(MarkerExcerpt)
	rec.ThumbnailImage = marker(MarkerThumbnail)
	rec.BannerImage = marker(MarkerBanner)
	rec.SourceURL = marker(MarkerSource)
	rec.IsTrending = marker(MarkerTrending) == "true"
	rec.IsVideo = marker(MarkerVideo) == "true"
	rec.VideoURL = marker(MarkerVideoURL)
	rec.IsJob = marker(MarkerJob) == "true"

	return rec
}
