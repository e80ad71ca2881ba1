// FILE: internal/service/processing_service.go
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/repository/contract"
	"ai-docview/pkg/events"
)

// IProcessingService simulates the remote generation pipeline: progress
// climbs in fixed steps and the document is finalized with generated
// study material once it reaches 100.
type IProcessingService interface {
	Step(ctx context.Context) error
	Run(ctx context.Context)
}

type processingService struct {
	documents contract.DocumentRepository
	progress  contract.ProgressRepository
	mirror    EventMirror
	step      int
	tick      time.Duration
	clock     clock.Clock
	logger    logger.ILogger
}

func NewProcessingService(
	documents contract.DocumentRepository,
	progress contract.ProgressRepository,
	mirror EventMirror,
	step int,
	tick time.Duration,
	clk clock.Clock,
	log logger.ILogger,
) IProcessingService {
	return &processingService{
		documents: documents,
		progress:  progress,
		mirror:    mirror,
		step:      step,
		tick:      tick,
		clock:     clk,
		logger:    log,
	}
}

// Run steps every tick until ctx is done.
func (s *processingService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Step(ctx); err != nil {
				s.logger.Error("Processing", "Processing step failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// Step advances every processing document once.
func (s *processingService) Step(ctx context.Context) error {
	docs, err := s.documents.FindAllProcessing(ctx)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		current, _, err := s.progress.Get(ctx, doc.Id)
		if err != nil {
			return err
		}

		next := current + s.step
		if next < 100 {
			if err := s.progress.Set(ctx, doc.Id, next); err != nil {
				return err
			}
			s.logger.Debug("Processing", "Progress advanced", map[string]interface{}{"document_id": doc.Id, "progress": next})
			continue
		}

		if err := s.finalize(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *processingService) finalize(ctx context.Context, doc *entity.OwnedDocument) error {
	generate(&doc.Document)
	doc.Status = entity.DocumentStatusReady
	doc.UpdatedAt = s.clock.Now()

	if err := s.documents.Update(ctx, doc); err != nil {
		return err
	}
	if err := s.progress.Delete(ctx, doc.Id); err != nil {
		return err
	}

	s.logger.Info("Processing", "Document ready", map[string]interface{}{"document_id": doc.Id, "topics": len(doc.Topics)})
	if s.mirror != nil {
		event := events.NewDocumentEvent(events.TypeDocumentReady, doc.Id, map[string]interface{}{
			"user_id": doc.OwnerId,
			"name":    doc.Name,
		}, doc.UpdatedAt)
		if err := s.mirror.Publish(ctx, event); err != nil {
			s.logger.Warn("Processing", "Failed to publish ready event", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
		}
	}
	return nil
}

// generate fills the study material derived from the document name.
func generate(d *entity.Document) {
	subject := strings.TrimSuffix(d.Name, filepath.Ext(d.Name))
	if subject == "" {
		subject = "Untitled"
	}

	d.Topics = []string{
		"Introduction to " + subject,
		"Core Concepts",
		"Applications",
		"Summary",
	}
	d.Explanations = make(map[string]string, len(d.Topics))
	root := &entity.MindNode{Label: subject}
	for _, topic := range d.Topics {
		d.Explanations[topic] = fmt.Sprintf("%s covers the material of %s that falls under %q.", topic, subject, strings.ToLower(topic))
		root.Children = append(root.Children, &entity.MindNode{
			Label:    topic,
			Children: []*entity.MindNode{{Label: "Key points"}},
		})
	}
	d.MindTree = root
	d.PredictedQuestions = []entity.PredictedQuestion{
		{Question: fmt.Sprintf("What is %s about?", subject), Answer: d.Explanations[d.Topics[0]]},
		{Question: "Which concepts are central?", Answer: d.Explanations["Core Concepts"]},
		{Question: "Where is it applied?", Answer: d.Explanations["Applications"]},
	}
}
