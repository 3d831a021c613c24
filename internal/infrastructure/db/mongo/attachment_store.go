package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const (
	defaultBucket      = "quote_pictures"
	contentTypeField   = "content_type"
	originalNameField  = "original_filename"
	defaultContentType = "application/octet-stream"
)

// AttachmentStore implements ports.AttachmentStore on a GridFS bucket. A
// reference is the hex form of the file's ObjectID. Files are stored under a
// random name keeping the upload's extension; the client's filename travels
// in the metadata. Each call opens its own bucket handle because GridFS
// deadlines are bucket state.
type AttachmentStore struct {
	db   *mongo.Database
	name string
}

// NewAttachmentStore opens the named bucket, falling back to quote_pictures.
func NewAttachmentStore(db *mongo.Database, bucketName string) (*AttachmentStore, error) {
	if bucketName == "" {
		bucketName = defaultBucket
	}
	s := &AttachmentStore{db: db, name: bucketName}
	if _, err := s.bucket(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AttachmentStore) bucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.name))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return bucket, nil
}

var _ ports.AttachmentStore = (*AttachmentStore)(nil)

func (s *AttachmentStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}
	bucket, err := s.bucket()
	if err != nil {
		return "", fmt.Errorf("save attachment: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return "", fmt.Errorf("save attachment: %w", err)
		}
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: contentTypeField, Value: contentType},
		{Key: originalNameField, Value: filename},
	})
	id, err := bucket.UploadFromStream(storedName(filename), r, opts)
	if err != nil {
		return "", fmt.Errorf("save attachment: %w", err)
	}
	return id.Hex(), nil
}

func (s *AttachmentStore) Open(ctx context.Context, ref string) (io.ReadCloser, *ports.StoredFile, error) {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, nil, domain.ErrAttachmentNotFound
	}
	bucket, err := s.bucket()
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, nil, fmt.Errorf("open attachment: %w", err)
		}
	}

	stream, err := bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}

	file := stream.GetFile()
	return stream, &ports.StoredFile{
		Ref:         ref,
		Filename:    metaString(file.Metadata, originalNameField, file.Name),
		ContentType: metaString(file.Metadata, contentTypeField, defaultContentType),
		Size:        file.Length,
		UploadedAt:  file.UploadDate.UTC(),
	}, nil
}

func (s *AttachmentStore) Delete(ctx context.Context, ref string) error {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return domain.ErrAttachmentNotFound
	}
	bucket, err := s.bucket()
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if err := bucket.DeleteContext(ctx, id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return domain.ErrAttachmentNotFound
		}
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

func storedName(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

func metaString(meta bson.Raw, key, fallback string) string {
	if len(meta) == 0 {
		return fallback
	}
	if v, ok := meta.Lookup(key).StringValueOK(); ok && v != "" {
		return v
	}
	return fallback
}
