// FILE: internal/controller/document_controller.go
package controller

import (
	"context"
	"errors"
	"sync"

	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/poller"
	"ai-docview/internal/service"
	"ai-docview/internal/session"
)

const (
	DeleteConfirmPrompt = "Are you sure you want to delete this document? This action cannot be undone."
	DeleteFailedMessage = "Failed to delete document"
	NotFoundMessage     = "Document not found"
	DashboardRoute      = "/dashboard"
)

var (
	ErrNoDocument       = errors.New("no document open")
	ErrDeleteInProgress = errors.New("delete already in progress")
	ErrDeleteCancelled  = errors.New("delete cancelled")
)

type Confirmer interface {
	Confirm(prompt string) bool
}

type Navigator interface {
	Navigate(route string)
}

type Alerter interface {
	Alert(message string)
}

// SessionSource is what the view needs from the session: the current token
// and a feed of changes.
type SessionSource interface {
	BackendToken() (string, bool)
	Subscribe(l session.Listener) func()
}

// DocumentView is everything a renderer needs to draw the document page.
type DocumentView struct {
	DocumentId string
	Phase      poller.Phase
	Progress   int
	Loading    bool
	Document   *entity.Document
	Message    string
	Deleting   bool
}

type IDocumentController interface {
	Open(documentId string)
	Select(documentId string)
	Close()
	State() DocumentView
	Delete(ctx context.Context) error
}

type documentController struct {
	documents service.IDocumentService
	loop      *poller.Loop
	confirmer Confirmer
	navigator Navigator
	alerter   Alerter
	logger    logger.ILogger

	mu          sync.Mutex
	documentId  string
	deleting    bool
	unsubscribe func()
}

// NewDocumentController binds loop to the session: every token change is
// forwarded to the loop, which restarts or parks accordingly.
func NewDocumentController(
	documents service.IDocumentService,
	loop *poller.Loop,
	sessions SessionSource,
	confirmer Confirmer,
	navigator Navigator,
	alerter Alerter,
	log logger.ILogger,
) IDocumentController {
	c := &documentController{
		documents: documents,
		loop:      loop,
		confirmer: confirmer,
		navigator: navigator,
		alerter:   alerter,
		logger:    log,
	}

	if token, ok := sessions.BackendToken(); ok {
		loop.SetCredential(token)
	}
	c.unsubscribe = sessions.Subscribe(func(record *entity.SessionRecord) {
		if record == nil {
			loop.SetCredential("")
			return
		}
		loop.SetCredential(record.BackendToken)
	})
	return c
}

func (c *documentController) Open(documentId string) {
	c.mu.Lock()
	c.documentId = documentId
	c.mu.Unlock()

	c.loop.Track(documentId)
}

// Select makes documentId the target of Delete without polling it.
func (c *documentController) Select(documentId string) {
	c.mu.Lock()
	c.documentId = documentId
	c.mu.Unlock()
}

func (c *documentController) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.loop.Close()
}

func (c *documentController) State() DocumentView {
	st := c.loop.Snapshot()

	c.mu.Lock()
	deleting := c.deleting
	c.mu.Unlock()

	view := DocumentView{
		DocumentId: st.DocumentId,
		Phase:      st.Phase,
		Progress:   st.Progress,
		Loading:    st.IsLoading,
		Document:   st.Last,
		Deleting:   deleting,
	}
	if st.Phase == poller.Error || (st.Phase == poller.Ready && st.Last == nil) {
		view.Message = NotFoundMessage
	}
	return view
}

// Delete asks for confirmation, deletes the open document and navigates to
// the dashboard. On failure the user is alerted and the view stays put.
func (c *documentController) Delete(ctx context.Context) error {
	c.mu.Lock()
	id := c.documentId
	if id == "" {
		c.mu.Unlock()
		return ErrNoDocument
	}
	if c.deleting {
		c.mu.Unlock()
		return ErrDeleteInProgress
	}
	c.mu.Unlock()

	if !c.confirmer.Confirm(DeleteConfirmPrompt) {
		return ErrDeleteCancelled
	}

	c.mu.Lock()
	if c.deleting {
		c.mu.Unlock()
		return ErrDeleteInProgress
	}
	c.deleting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.deleting = false
		c.mu.Unlock()
	}()

	if err := c.documents.Delete(ctx, id); err != nil {
		c.logger.Error("DocumentController", "Delete failed", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
		c.alerter.Alert(DeleteFailedMessage)
		return err
	}

	c.navigator.Navigate(DashboardRoute)
	return nil
}
