package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

// MindTreeError reports a mind tree that could not be decoded. The rest of
// the document is still usable.
type MindTreeError struct {
	DocumentId string
	Cause      error
}

func (e *MindTreeError) Error() string {
	return fmt.Sprintf("decode mind tree for %s: %v", e.DocumentId, e.Cause)
}

func (e *MindTreeError) Unwrap() error { return e.Cause }

// ToEntity converts a wire document. A missing progress becomes 0 and is
// clamped to 0..100; an empty or null mind tree becomes nil. While the
// document is processing only progress is read.
//
// The document is always returned for a non-nil input. A non-nil error is a
// *MindTreeError: the tree was dropped and MindTree is nil.
func (m *DocumentMapper) ToEntity(d *dto.DocumentResponse) (*entity.Document, error) {
	if d == nil {
		return nil, nil
	}

	progress := 0
	if d.Progress != nil {
		progress = clampProgress(*d.Progress)
	}

	status := entity.DocumentStatus(d.Status)
	if status == entity.DocumentStatusProcessing {
		doc := &entity.Document{Id: d.Id, Name: d.Name, Status: status, Progress: progress}
		m.fillMeta(doc, d)
		return doc, nil
	}

	var treeErr error
	tree, err := decodeMindTree(d.MindTree)
	if err != nil {
		tree = nil
		treeErr = &MindTreeError{DocumentId: d.Id, Cause: err}
	}

	doc := &entity.Document{
		Id:           d.Id,
		Name:         d.Name,
		Status:       status,
		Progress:     progress,
		Topics:       d.Topics,
		Explanations: d.Explanations,
		MindTree:     tree,
	}
	m.fillMeta(doc, d)
	for _, q := range d.PredictedQuestions {
		doc.PredictedQuestions = append(doc.PredictedQuestions, entity.PredictedQuestion{
			Question: q.Question,
			Answer:   q.Answer,
		})
	}
	return doc, treeErr
}

func (m *DocumentMapper) fillMeta(doc *entity.Document, d *dto.DocumentResponse) {
	if d.FileUrl != nil {
		doc.FileURL = *d.FileUrl
	}
	if d.CreatedAt != nil {
		doc.CreatedAt = *d.CreatedAt
	}
}

func (m *DocumentMapper) ToDTO(d *entity.Document) *dto.DocumentResponse {
	if d == nil {
		return nil
	}
	progress := d.Progress
	out := &dto.DocumentResponse{
		Id:           d.Id,
		Name:         d.Name,
		Status:       string(d.Status),
		Progress:     &progress,
		Topics:       d.Topics,
		Explanations: d.Explanations,
		MindTree:     json.RawMessage("{}"),
	}
	if out.Topics == nil {
		out.Topics = []string{}
	}
	if out.Explanations == nil {
		out.Explanations = map[string]string{}
	}
	if d.FileURL != "" {
		url := d.FileURL
		out.FileUrl = &url
	}
	if !d.CreatedAt.IsZero() {
		created := d.CreatedAt.UTC().Truncate(time.Second)
		out.CreatedAt = &created
	}
	if d.MindTree != nil {
		if raw, err := json.Marshal(encodeMindNode(d.MindTree)); err == nil {
			out.MindTree = raw
		}
	}
	out.PredictedQuestions = make([]dto.PredictedQuestionDTO, 0, len(d.PredictedQuestions))
	for _, q := range d.PredictedQuestions {
		out.PredictedQuestions = append(out.PredictedQuestions, dto.PredictedQuestionDTO{
			Question: q.Question,
			Answer:   q.Answer,
		})
	}
	return out
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func decodeMindTree(raw json.RawMessage) (*entity.MindNode, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var node dto.MindNodeDTO
	if err := json.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	root := decodeMindNode(node)
	if root.Label == "" && len(root.Children) == 0 {
		return nil, nil
	}
	return root, nil
}

func decodeMindNode(n dto.MindNodeDTO) *entity.MindNode {
	label := n.Name
	if label == "" {
		label = n.Label
	}
	if label == "" {
		label = n.Title
	}
	node := &entity.MindNode{Label: label}
	for _, c := range n.Children {
		node.Children = append(node.Children, decodeMindNode(c))
	}
	return node
}

func encodeMindNode(n *entity.MindNode) dto.MindNodeDTO {
	out := dto.MindNodeDTO{Name: n.Label}
	for _, c := range n.Children {
		out.Children = append(out.Children, encodeMindNode(c))
	}
	return out
}
