package documents

import (
	"context"
	"time"

	"github.com/JaimeStill/console/pkg/source"
	"github.com/JaimeStill/console/pkg/table"
)

// remotePost is the placeholder API "posts" shape.
type remotePost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// remoteDocument is what write-through sends back to the source.
type remoteDocument struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Fetch loads every document from src. Posts carry no author or creation
// time, so each is stamped UnknownAuthor and now.
func Fetch(ctx context.Context, src source.System, now time.Time) ([]Document, error) {
	raw, err := src.Fetch(ctx, Kind.Name)
	if err != nil {
		return nil, err
	}
	return source.Decode(raw, func(p remotePost) Document {
		return Document{
			ID:        p.ID,
			Title:     p.Title,
			Author:    UnknownAuthor,
			CreatedAt: now,
		}
	})
}

// Fetcher adapts Fetch to the table engine, stamping documents with the
// time the fetch ran.
func Fetcher(src source.System, clock func() time.Time) table.Fetcher[Document] {
	return func(ctx context.Context) ([]Document, error) {
		return Fetch(ctx, src, clock())
	}
}

// Persister writes upserts through to src. Attachments stay local.
func Persister(src source.System) table.Persister[Document] {
	return func(ctx context.Context, d Document, created bool) error {
		return src.Save(ctx, Kind.Name, d.ID, remoteDocument{
			ID:        d.ID,
			Title:     d.Title,
			Author:    d.Author,
			CreatedAt: d.CreatedAt,
		}, created)
	}
}
