package models

// CreateDetectionRequest is the API request for submitting a new detection.
type CreateDetectionRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	Platform    string            `json:"platform"`
	Version     string            `json:"version,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Tags        []string          `json:"tags,omitempty"`

	// Populated by the transport layer from the authenticated caller,
	// never from the request body.
	OwnerID string `json:"-"`
	OrgID   string `json:"-"`
}

// ValidateContentRequest is the API request for standalone validation.
type ValidateContentRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

// ListDetectionsResponse is a page of detections plus the cursor for the
// next page. NextCursor is empty on the final page.
type ListDetectionsResponse struct {
	Detections []*Detection `json:"detections"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// VersionHistoryResponse lists all versions of a detection, newest first.
type VersionHistoryResponse struct {
	DetectionID string              `json:"detection_id"`
	Versions    []*DetectionVersion `json:"versions"`
}
