package entity

import "time"

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

type PredictedQuestion struct {
	Question string
	Answer   string
}

// MindNode is one node of the generated mind map.
type MindNode struct {
	Label    string
	Children []*MindNode
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *MindNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Document is a read-only snapshot of a remote document. While Status is
// processing only Progress is meaningful; the other generated fields are
// not final.
type Document struct {
	Id                 string
	Name               string
	Status             DocumentStatus
	Progress           int
	Topics             []string
	Explanations       map[string]string
	MindTree           *MindNode
	PredictedQuestions []PredictedQuestion
	FileURL            string
	CreatedAt          time.Time
}

func (d *Document) IsProcessing() bool {
	return d.Status == DocumentStatusProcessing
}

// OwnedDocument is the backend-side record kept by the mock API.
type OwnedDocument struct {
	Document
	OwnerId   string
	UpdatedAt time.Time
}
