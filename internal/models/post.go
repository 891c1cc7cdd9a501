// Package models defines the domain types for Folio.
package models

import "time"

// Post is a parsed content file.
type Post struct {
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Date         time.Time  `json:"date"`
	ModifiedDate *time.Time `json:"modifiedDate,omitempty"`
	Tags         []string   `json:"tags"`
	Featured     bool       `json:"featured"`
	Draft        bool       `json:"draft"`
	HeroImage    string     `json:"heroImage,omitempty"`
	ReadingTime  string     `json:"readingTime"`
	Content      string     `json:"content"`

	// Path is the source file relative to the content root.
	Path string `json:"-"`
}

// PostMeta is a Post without its body, as served to search-index builders.
type PostMeta struct {
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Date         time.Time  `json:"date"`
	ModifiedDate *time.Time `json:"modifiedDate,omitempty"`
	Tags         []string   `json:"tags"`
	Featured     bool       `json:"featured"`
	Draft        bool       `json:"draft"`
	HeroImage    string     `json:"heroImage,omitempty"`
	ReadingTime  string     `json:"readingTime"`
}

// Meta returns the metadata-only projection of p.
func (p Post) Meta() PostMeta {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostMeta{
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description,
		Date:         p.Date,
		ModifiedDate: p.ModifiedDate,
		Tags:         tags,
		Featured:     p.Featured,
		Draft:        p.Draft,
		HeroImage:    p.HeroImage,
		ReadingTime:  p.ReadingTime,
	}
}

// LastModified returns ModifiedDate when set, otherwise Date.
func (p Post) LastModified() time.Time {
	if p.ModifiedDate != nil {
		return *p.ModifiedDate
	}
	return p.Date
}

// TagCount is one entry of the tag frequency index.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearGroup holds the posts published in one calendar year.
type YearGroup struct {
	Year  int    `json:"year"`
	Posts []Post `json:"posts"`
}

// ContentFile is a lightweight listing entry for a content file on disk.
type ContentFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
