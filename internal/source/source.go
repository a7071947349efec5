// Package source loads the JSON document the site's articles are
// generated from. The generator consumes it wholesale; the reconciler
// only looks articles up by id when hunting for replacement URLs.
package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// Article is one entry of the source data file.
type Article struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	PublishDate    string `json:"publishDate"`
	Category       string `json:"category"`
	Excerpt        string `json:"excerpt"`
	ReadTime       string `json:"readTime"`
	SourceURL      string `json:"sourceUrl"`
	ThumbnailImage string `json:"thumbnailImage"`
	BannerImage    string `json:"bannerImage"`
	FullContent    string `json:"fullContent"`
	IsTrending     bool   `json:"isTrending"`
	IsVideo        bool   `json:"isVideo"`
	VideoURL       string `json:"videoUrl"`
	IsJob          bool   `json:"isJob"`
}

// Dataset is the parsed source file with a by-id lookup.
type Dataset struct {
	Articles []Article
	byID     map[string]*Article
}

// Load reads and parses the source data file. The document is either a
// bare array of articles or an object with an "articles" array.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source data: %w", err)
	}

	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		var wrapped struct {
			Articles []Article `json:"articles"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parsing source data: %w", err)
		}
		articles = wrapped.Articles
	}

	ds := &Dataset{
		Articles: articles,
		byID:     make(map[string]*Article, len(articles)),
	}
	for i := range ds.Articles {
		a := &ds.Articles[i]
		if a.ID == "" {
			continue
		}
		if _, dup := ds.byID[a.ID]; !dup {
			ds.byID[a.ID] = a
		}
	}
	return ds, nil
}

// ByID returns the source article with the given id, or nil.
func (d *Dataset) ByID(id string) *Article {
	if d == nil {
		return nil
	}
	return d.byID[id]
}
