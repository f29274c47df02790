package models

// OutboundMessageRequest represents requests to post a message manually via the API.
type OutboundMessageRequest struct {
	Channel string `json:"channel"`
	Message string `json:"message" binding:"required"`
}

// RunResponse is returned by the HTTP trigger after a run completes.
type RunResponse struct {
	Report  *RunReport `json:"report"`
	Summary string     `json:"summary"`
}
