package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/landreg/apiserver/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoConnectTimeout = 10 * time.Second

// GridFSClient stores objects as MongoDB GridFS files named by key.
type GridFSClient struct {
	client *mongo.Client
	db     *mongo.Database
	bucket string
}

// NewGridFSClient connects to MongoDB and selects the GridFS bucket.
func NewGridFSClient(ctx context.Context, mongoCfg config.MongoConfig, cfg config.GridFSConfig) (*GridFSClient, error) {
	if strings.TrimSpace(mongoCfg.URI) == "" {
		return nil, errors.New("mongo uri is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gridfs bucket is required")
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoCfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &GridFSClient{
		client: client,
		db:     client.Database(mongoCfg.Database),
		bucket: cfg.Bucket,
	}, nil
}

// openBucket returns a bucket handle bound to the context deadline. Handles
// are per call because deadlines are bucket-wide.
func (g *GridFSClient) openBucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(g.db, options.GridFSBucket().SetName(g.bucket))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

// EnsureBucket is a no-op: GridFS creates its collections on first write.
func (g *GridFSClient) EnsureBucket(ctx context.Context) error {
	return nil
}

// Put uploads r as a GridFS file named key, replacing earlier revisions.
func (g *GridFSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	bucket, err := g.openBucket(ctx)
	if err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	stream, err := bucket.OpenUploadStream(key, opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	return g.deleteRevisions(ctx, bucket, key, stream.FileID)
}

// Get opens the latest revision of the file named key.
func (g *GridFSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, err := g.openBucket(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return stream, nil
}

// Delete removes every revision of the file named key.
func (g *GridFSClient) Delete(ctx context.Context, key string) error {
	bucket, err := g.openBucket(ctx)
	if err != nil {
		return err
	}
	return g.deleteRevisions(ctx, bucket, key, nil)
}

func (g *GridFSClient) deleteRevisions(ctx context.Context, bucket *gridfs.Bucket, key string, keep any) error {
	cursor, err := bucket.Find(bson.D{{Key: "filename", Value: key}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return err
		}
		if keep != nil && keep == any(file.ID) {
			continue
		}
		if err := bucket.Delete(file.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
	}
	return cursor.Err()
}

// Bucket returns the GridFS bucket name.
func (g *GridFSClient) Bucket() string {
	return g.bucket
}

// Close disconnects from MongoDB.
func (g *GridFSClient) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}
