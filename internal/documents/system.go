package documents

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/storage"
	"github.com/JaimeStill/console/pkg/table"
)

// System saves document submissions against a session's table and serves
// their attachments.
type System interface {
	// Save validates draft, stores file when given, and upserts the result
	// into eng. Field problems come back as form.Errors; the table is left
	// untouched in that case.
	Save(ctx context.Context, eng *table.Engine[Document], draft Draft, editingID *int, file *Upload) (Document, error)
	// Open returns the attachment blob of document id in eng.
	Open(ctx context.Context, eng *table.Engine[Document], id int) (*storage.Blob, *Attachment, error)
}

type repo struct {
	storage storage.System
	clock   func() time.Time
	logger  *slog.Logger
}

// New creates the document system over the given blob store.
func New(store storage.System, clock func() time.Time, logger *slog.Logger) System {
	if clock == nil {
		clock = time.Now
	}
	return &repo{
		storage: store,
		clock:   clock,
		logger:  logger.With("system", "documents"),
	}
}

func (r *repo) Save(ctx context.Context, eng *table.Engine[Document], draft Draft, editingID *int, file *Upload) (Document, error) {
	var prev Document
	found := false
	if editingID != nil {
		prev, found = eng.Find(*editingID)
	}

	doc, errs := draft.Validate(!found, file != nil)
	if file != nil {
		if err := file.Check(); err != nil {
			if errs == nil {
				errs = form.Errors{}
			}
			errs.Add("file", FileMessage(err))
		}
	}
	if err := errs.Err(); err != nil {
		return Document{}, err
	}

	if file != nil {
		att := file.describe(r.logger)
		if err := r.storage.Upload(ctx, att.StorageKey, bytes.NewReader(file.Data), att.ContentType); err != nil {
			return Document{}, fmt.Errorf("upload attachment: %w", err)
		}
		doc.Attachment = att
	}

	if found {
		doc = Revise(prev, doc)
	} else {
		doc.CreatedAt = r.clock()
	}

	saved, err := eng.Upsert(ctx, doc, editingID)
	if err != nil {
		if file != nil {
			r.discard(ctx, doc.Attachment.StorageKey, "compensating blob delete failed")
		}
		return Document{}, err
	}

	if found && file != nil && prev.Attachment != nil {
		r.discard(ctx, prev.Attachment.StorageKey, "replaced blob delete failed")
	}

	r.logger.Info("document saved", "id", saved.ID, "created", !found, "attachment", saved.Attachment != nil)
	return saved, nil
}

func (r *repo) Open(ctx context.Context, eng *table.Engine[Document], id int) (*storage.Blob, *Attachment, error) {
	doc, ok := eng.Find(id)
	if !ok {
		return nil, nil, ErrNotFound
	}
	if doc.Attachment == nil {
		return nil, nil, ErrNoAttachment
	}

	blob, err := r.storage.Download(ctx, doc.Attachment.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment %d: %w", id, err)
	}
	return blob, doc.Attachment, nil
}

func (r *repo) discard(ctx context.Context, key, msg string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn(msg, "key", key, "error", err)
	}
}
