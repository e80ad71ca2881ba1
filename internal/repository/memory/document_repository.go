package memory

import (
	"context"
	"fmt"
	"sort"

	"ai-docview/internal/entity"
	"ai-docview/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// DocumentRepository keeps mock documents in process memory. Entries never
// expire; they go away on Delete or restart.
type DocumentRepository struct {
	cache *cache.Cache
}

var _ contract.DocumentRepository = (*DocumentRepository)(nil)

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *entity.OwnedDocument) error {
	if err := r.cache.Add(doc.Id, copyDocument(doc), cache.NoExpiration); err != nil {
		return fmt.Errorf("create document %s: %w", doc.Id, err)
	}
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *entity.OwnedDocument) error {
	if err := r.cache.Replace(doc.Id, copyDocument(doc), cache.NoExpiration); err != nil {
		return fmt.Errorf("update document %s: %w", doc.Id, err)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r *DocumentRepository) FindOne(ctx context.Context, id string) (*entity.OwnedDocument, error) {
	if x, found := r.cache.Get(id); found {
		return copyDocument(x.(*entity.OwnedDocument)), nil
	}
	return nil, nil
}

// FindAllByOwner returns the owner's documents, newest first.
func (r *DocumentRepository) FindAllByOwner(ctx context.Context, ownerId string) ([]*entity.OwnedDocument, error) {
	return r.findAll(func(d *entity.OwnedDocument) bool { return d.OwnerId == ownerId }), nil
}

func (r *DocumentRepository) FindAllProcessing(ctx context.Context) ([]*entity.OwnedDocument, error) {
	return r.findAll(func(d *entity.OwnedDocument) bool { return d.IsProcessing() }), nil
}

func (r *DocumentRepository) findAll(keep func(*entity.OwnedDocument) bool) []*entity.OwnedDocument {
	var out []*entity.OwnedDocument
	for _, item := range r.cache.Items() {
		doc := item.Object.(*entity.OwnedDocument)
		if keep(doc) {
			out = append(out, copyDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func copyDocument(d *entity.OwnedDocument) *entity.OwnedDocument {
	c := *d
	c.Topics = append([]string(nil), d.Topics...)
	c.PredictedQuestions = append([]entity.PredictedQuestion(nil), d.PredictedQuestions...)
	if d.Explanations != nil {
		c.Explanations = make(map[string]string, len(d.Explanations))
		for k, v := range d.Explanations {
			c.Explanations[k] = v
		}
	}
	return &c
}
