package tables

import (
	"context"
	"sync"

	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/metrics"
	"github.com/JaimeStill/console/pkg/table"
)

// Workspace is one session's view of the data: a Users and a Documents
// engine whose query, sort, cursor and edits are private to the session.
type Workspace struct {
	ID        string
	Users     *table.Engine[users.User]
	Documents *table.Engine[documents.Document]

	docs documents.System
	once sync.Once
}

// SaveUser validates draft and upserts it. Field problems come back as
// form.Errors and leave the table untouched.
func (w *Workspace) SaveUser(ctx context.Context, draft users.Draft, editingID *int) (users.User, error) {
	u, errs := draft.Validate()
	if err := errs.Err(); err != nil {
		return users.User{}, err
	}

	saved, err := w.Users.Upsert(ctx, u, editingID)
	metrics.ObserveUpsert(users.Kind.Name, created(w.Users, editingID), err)
	return saved, err
}

// SaveDocument validates draft, stores file and upserts the document.
func (w *Workspace) SaveDocument(ctx context.Context, draft documents.Draft, editingID *int, file *documents.Upload) (documents.Document, error) {
	isNew := created(w.Documents, editingID)
	saved, err := w.docs.Save(ctx, w.Documents, draft, editingID, file)
	metrics.ObserveUpsert(documents.Kind.Name, isNew, err)
	return saved, err
}

// Attachment opens the stored file of document id.
func (w *Workspace) Attachment(ctx context.Context, id int) (*Attachment, error) {
	blob, att, err := w.docs.Open(ctx, w.Documents, id)
	if err != nil {
		return nil, err
	}
	return &Attachment{Blob: blob, Meta: att}, nil
}

// Loaded is closed once both initial fetches have resolved.
func (w *Workspace) Loaded() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-w.Users.Loaded()
		<-w.Documents.Loaded()
	}()
	return done
}

// Close tears down both engines. It is safe to call more than once.
func (w *Workspace) Close() {
	w.once.Do(func() {
		w.Users.Close()
		w.Documents.Close()
		metrics.SessionClosed()
	})
}

func created[R any](eng *table.Engine[R], editingID *int) bool {
	if editingID == nil {
		return true
	}
	_, ok := eng.Find(*editingID)
	return !ok
}
