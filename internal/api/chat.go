package api

import (
	"context"
	"net/http"

	"portfolio-site/internal/model"
)

type ChatRequest struct {
	Message string           `json:"message"`
	History []model.ChatTurn `json:"history"`
	UseRAG  *bool            `json:"use_rag,omitempty"`
}

type ChatResponse struct {
	Response string         `json:"response"`
	Sources  []model.Source `json:"sources,omitempty"`
}

func (c *Client) Chat(ctx context.Context, in ChatRequest) (*ChatResponse, error) {
	if in.History == nil {
		in.History = []model.ChatTurn{}
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/chat", in)
	if err != nil {
		return nil, err
	}

	var out ChatResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
