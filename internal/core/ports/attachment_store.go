package ports

import (
	"context"
	"io"
	"time"
)

// StoredFile describes a blob held by the attachment store.
type StoredFile struct {
	Ref         string
	Filename    string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

// AttachmentStore keeps quote photos outside the relational store.
type AttachmentStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, *StoredFile, error)
	Delete(ctx context.Context, ref string) error
}
