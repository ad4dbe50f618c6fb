package dto

type WebhookResponse struct {
	Received bool `json:"received"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
