// FILE: internal/dto/document_dto.go
package dto

import (
	"encoding/json"
	"time"
)

type PredictedQuestionDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DocumentResponse is the body of GET /api/v1/documents/{id}. MindTree is
// kept raw because the service sends {} or null when there is no tree yet.
type DocumentResponse struct {
	Id                 string                 `json:"id"`
	Name               string                 `json:"name,omitempty"`
	Status             string                 `json:"status"`
	Progress           *int                   `json:"progress,omitempty"`
	FileUrl            *string                `json:"fileUrl"`
	Topics             []string               `json:"topics"`
	Explanations       map[string]string      `json:"explanations"`
	MindTree           json.RawMessage        `json:"mindTree"`
	PredictedQuestions []PredictedQuestionDTO `json:"predictedQuestions"`
	CreatedAt          *time.Time             `json:"createdAt,omitempty"`
}

// MindNodeDTO accepts the label under any of the keys the generator uses.
type MindNodeDTO struct {
	Name     string        `json:"name,omitempty"`
	Label    string        `json:"label,omitempty"`
	Title    string        `json:"title,omitempty"`
	Children []MindNodeDTO `json:"children,omitempty"`
}

type CreateDocumentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse mirrors the {"detail": "..."} shape the document service uses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// PollEventPayload travels over the poll event bus.
type PollEventPayload struct {
	DocumentId string            `json:"document_id"`
	Kind       string            `json:"kind"`
	Progress   int               `json:"progress"`
	Document   *DocumentResponse `json:"document,omitempty"`
	Error      string            `json:"error,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
