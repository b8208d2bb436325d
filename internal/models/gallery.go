package models

import "time"

// GalleryImage is one fan gallery tile
type GalleryImage struct {
	URL        string    `json:"url"`
	Uploader   string    `json:"uploader"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// GalleryList is the /api/gallery payload
type GalleryList struct {
	Images []GalleryImage `json:"images"`
}

// JennaImage is one tile on the Jenna page
type JennaImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// JennaList is the /api/jenna payload
type JennaList struct {
	Images []JennaImage `json:"images"`
}
