package models

import "time"

// Placeholder uploader names. The filesystem keeps no metadata, so listings
// cannot know who actually uploaded a file.
const (
	PendingUploader  = "anonymous"
	ApprovedUploader = "approved_user"
)

// UploadRecord describes one file in the pending or approved directory.
// ID is the filename; UploadedAt is the listing time, not the upload time.
type UploadRecord struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Uploader   string    `json:"uploader"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadListing is the /api/admin/uploads payload
type UploadListing struct {
	Pending  []UploadRecord `json:"pending"`
	Approved []UploadRecord `json:"approved"`
}

// StoredUpload is returned after a file lands in the pending directory
type StoredUpload struct {
	Filename string `json:"filename"`
	Uploader string `json:"uploader"`
}
