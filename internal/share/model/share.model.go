package model

type ShareRequest struct {
	Email   string `json:"email"`
	CanEdit bool   `json:"can_edit"`
}

type UpdateShareRequest struct {
	Email   string `json:"email"`
	CanEdit *bool  `json:"can_edit"`
}

type RevokeRequest struct {
	Email string `json:"email"`
}
