package rag

// ContentType distinguishes document origins for provenance.
type ContentType string

const (
	// ContentTypeText marks text extracted directly from a source file.
	ContentTypeText ContentType = "text"
	// ContentTypeImageCaption marks synthetic text produced by captioning
	// a raster image.
	ContentTypeImageCaption ContentType = "image_caption"
)

// Document is a unit of source material produced by ingestion. Immutable
// once created.
type Document struct {
	ID          string            `json:"id"`
	SourceID    string            `json:"source_id"`
	PageNumber  int               `json:"page_number,omitempty"`
	ContentType ContentType       `json:"content_type"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Chunk is the unit of retrieval: a bounded span of document text plus its
// embedding and provenance metadata.
type Chunk struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	SourceID    string      `json:"source_id"`
	PageNumber  int         `json:"page_number,omitempty"`
	ContentType ContentType `json:"content_type"`
	Embedding   []float64   `json:"embedding,omitempty"`
}
