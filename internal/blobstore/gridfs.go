package blobstore

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-service/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

// Store keeps uploaded photos and attachments in GridFS, with the owner
// and content type recorded in the file metadata document.
type Store struct {
	bucket *gridfs.Bucket
}

// NewStore builds a Store over the given database.
func NewStore(db *mongo.Database) (*Store, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &Store{bucket: bucket}, nil
}

type fileDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"filename"`
	Length   int64              `bson:"length"`
	Metadata struct {
		OwnerID     string `bson:"owner_id"`
		ContentType string `bson:"content_type"`
	} `bson:"metadata"`
}

func metaFromDoc(doc fileDoc) models.FileMeta {
	id := doc.ID.Hex()
	return models.FileMeta{
		ID:   id,
		URL:  "/files/" + id,
		Type: doc.Metadata.ContentType,
		Size: doc.Length,
		Name: doc.Name,
	}
}

// Upload stores the blob and returns its descriptor.
func (s *Store) Upload(ctx context.Context, ownerID, name, contentType string, r io.Reader) (models.FileMeta, error) {
	s.applyDeadline(ctx)

	opts := options.GridFSUpload().SetMetadata(bson.M{
		"owner_id":     ownerID,
		"content_type": contentType,
	})
	id, err := s.bucket.UploadFromStream(name, r, opts)
	if err != nil {
		return models.FileMeta{}, err
	}
	return s.Metadata(ctx, id.Hex())
}

// Open returns a reader over the blob's content along with its descriptor.
// The caller closes the reader.
func (s *Store) Open(ctx context.Context, fileID string) (models.FileMeta, io.ReadCloser, error) {
	meta, err := s.Metadata(ctx, fileID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}

	id, _ := primitive.ObjectIDFromHex(fileID)
	s.applyDeadline(ctx)
	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return models.FileMeta{}, nil, ErrFileNotFound
		}
		return models.FileMeta{}, nil, err
	}
	return meta, stream, nil
}

// Metadata returns the descriptor without reading the content.
func (s *Store) Metadata(ctx context.Context, fileID string) (models.FileMeta, error) {
	id, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return models.FileMeta{}, ErrFileNotFound
	}

	var doc fileDoc
	err = s.bucket.GetFilesCollection().
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FileMeta{}, ErrFileNotFound
	}
	if err != nil {
		return models.FileMeta{}, err
	}
	return metaFromDoc(doc), nil
}

// ListByOwner returns descriptors for all blobs the user uploaded, newest
// first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]models.FileMeta, error) {
	cursor, err := s.bucket.GetFilesCollection().Find(ctx,
		bson.M{"metadata.owner_id": ownerID},
		options.Find().SetSort(bson.M{"uploadDate": -1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	metas := []models.FileMeta{}
	for cursor.Next(ctx) {
		var doc fileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		metas = append(metas, metaFromDoc(doc))
	}
	return metas, cursor.Err()
}

// Delete removes the blob. Only the owner may delete; ownership is checked
// against the metadata document.
func (s *Store) Delete(ctx context.Context, ownerID, fileID string) error {
	meta, err := s.Metadata(ctx, fileID)
	if err != nil {
		return err
	}

	var doc fileDoc
	id, _ := primitive.ObjectIDFromHex(meta.ID)
	if err := s.bucket.GetFilesCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return err
	}
	if doc.Metadata.OwnerID != ownerID {
		return ErrFileNotFound
	}

	s.applyDeadline(ctx)
	if err := s.bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}

func (s *Store) applyDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetWriteDeadline(deadline)
		_ = s.bucket.SetReadDeadline(deadline)
	}
}
