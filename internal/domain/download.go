package domain

// DownloadCounter tracks how many times a template has been downloaded.
// The count is monotonically non-decreasing.
type DownloadCounter struct {
	TemplateID string
	Count      int64
}

// TemplateStats joins a template's rating aggregate with its download
// counter for the list endpoint.
type TemplateStats struct {
	TemplateID string
	Average    float64
	Count      int64
	Downloads  int64
}
