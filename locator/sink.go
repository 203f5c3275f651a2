package locator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// CaptureSink receives the retained screenshot of a run. It is an injected
// debug side-effect; the loop ignores sink failures beyond logging them.
type CaptureSink interface {
	Save(ctx context.Context, requestID string, ordinal int, image []byte) error
}

// NoopSink discards captures.
type NoopSink struct{}

func (NoopSink) Save(context.Context, string, int, []byte) error { return nil }

// DirSink writes captures as JPEG files under a debug directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, requestID string, ordinal int, image []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%s_p%d.jpg", requestID, ordinal))
	if err := os.WriteFile(path, image, 0644); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	return nil
}

var captureBucket = []byte("captures")

// BoltSink stores captures in a bbolt bucket keyed request-id/ordinal.
type BoltSink struct {
	db *bolt.DB
}

func NewBoltSink(dbPath string) (*BoltSink, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for capture db: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(captureBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltSink{db: db}, nil
}

func (s *BoltSink) Save(_ context.Context, requestID string, ordinal int, image []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(captureBucket)
		key := []byte(fmt.Sprintf("%s/%d", requestID, ordinal))
		return b.Put(key, image)
	})
}

// Load retrieves a stored capture, mainly for debugging tools.
func (s *BoltSink) Load(requestID string, ordinal int) ([]byte, error) {
	var image []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(captureBucket)
		v := b.Get([]byte(fmt.Sprintf("%s/%d", requestID, ordinal)))
		if v == nil {
			return fmt.Errorf("capture not found")
		}
		image = append([]byte(nil), v...)
		return nil
	})
	return image, err
}

func (s *BoltSink) Close() error {
	return s.db.Close()
}
