package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record describes one saved export.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Format      Format `json:"format"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	// URL is a direct download link when the store can sign one.
	URL string `json:"url,omitempty"`
}

type Exporter struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewExporter(store Store) *Exporter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Exporter{store: store, now: time.Now, newID: uuid.NewString}
}

func (e *Exporter) Store() Store { return e.store }

// Save renders doc and stores it under a fresh id.
func (e *Exporter) Save(ctx context.Context, f Format, doc Document) (Record, []byte, error) {
	body, err := Render(f, doc)
	if err != nil {
		return Record{}, nil, err
	}
	rec := Record{
		ID:          e.newID(),
		Name:        FileName(f, doc, e.now()),
		Format:      f,
		ContentType: f.ContentType(),
		Size:        len(body),
	}
	if err := e.store.Put(ctx, rec.ID, rec.Name, body, rec.ContentType); err != nil {
		return Record{}, nil, fmt.Errorf("store export: %w", err)
	}
	if rec.URL, err = e.store.GetURL(ctx, rec.ID, rec.Name); err != nil {
		return Record{}, nil, fmt.Errorf("sign export url: %w", err)
	}
	return rec, body, nil
}

// Load returns the single file stored under id.
func (e *Exporter) Load(ctx context.Context, id string) (string, []byte, error) {
	names, err := e.store.List(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if len(names) == 0 {
		return "", nil, ErrNotFound
	}
	body, err := e.store.Get(ctx, id, names[0])
	if err != nil {
		return "", nil, err
	}
	return names[0], body, nil
}
