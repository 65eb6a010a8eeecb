package model

type Document struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	ChunkCount int    `json:"chunk_count"`
	FileType   string `json:"file_type"`
}
