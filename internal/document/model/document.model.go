package model

import "mininotion/store"

type CreateDocRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

// UpdateDocRequest replaces the title. Content is left untouched when omitted.
type UpdateDocRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type DocumentList struct {
	Owned  []store.Document       `json:"owned"`
	Shared []store.SharedDocument `json:"shared"`
}
