package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"portfolio-site/internal/model"
)

const documentsPath = "/admin/documents"

type UploadResult struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message,omitempty"`
}

type DeleteResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DeletedChunks int    `json:"deleted_chunks"`
}

func (c *Client) ListDocuments(ctx context.Context, apiKey string) ([]model.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, documentsPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderAPIKey, apiKey)

	docs := []model.Document{}
	if err := c.doJSON(req, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument streams content as the multipart "file" field.
func (c *Client) UploadDocument(ctx context.Context, apiKey, filename string, content io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, documentsPath+"/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(HeaderAPIKey, apiKey)

	var out UploadResult
	if err := c.doJSON(req, &out); err != nil {
		pr.Close()
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, apiKey, documentID string) (*DeleteResult, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is empty")
	}
	req, err := c.newRequest(ctx, http.MethodDelete, documentsPath+"/"+url.PathEscape(documentID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderAPIKey, apiKey)

	var out DeleteResult
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DocumentInfo returns the backend's metadata object for one document.
func (c *Client) DocumentInfo(ctx context.Context, documentID string) (map[string]interface{}, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id is empty")
	}
	req, err := c.newRequest(ctx, http.MethodGet, documentsPath+"/"+url.PathEscape(documentID), nil)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StorageStats(ctx context.Context) (map[string]interface{}, error) {
	req, err := c.newRequest(ctx, http.MethodGet, documentsPath+"/stats/storage", nil)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
