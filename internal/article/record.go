// Package article defines the article record and the metadata extraction
// that reads records back out of generated pages.
package article

// Record is one entry in the derived article index. Every field is
// reconstructed from meta markers embedded in the generated page, so the
// index never holds information the pages themselves don't carry.
type Record struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Filename       string `json:"filename"`
	Category       string `json:"category"`
	Author         string `json:"author"`
	PublishDate    string `json:"publishDate"`
	ReadTime       string `json:"readTime"`
	Excerpt        string `json:"excerpt"`
	ThumbnailImage string `json:"thumbnailImage"`
	BannerImage    string `json:"bannerImage"`
	SourceURL      string `json:"sourceUrl"`
	IsTrending     bool   `json:"isTrending"`
	IsVideo        bool   `json:"isVideo"`
	VideoURL       string `json:"videoUrl"`
	IsJob          bool   `json:"isJob"`
}

// Valid reports whether the record carries enough identity to be indexed.
// A record without an id cannot be referenced by the site and is skipped.
func (r Record) Valid() bool {
	return r.ID != ""
}
