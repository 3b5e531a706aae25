package models

// ChatRequest asks the assistant a question.
type ChatRequest struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

// ChatResponse is the assistant's answer.
type ChatResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}
