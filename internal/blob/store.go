package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const keyPrefix = "blob:"

var (
	ErrBadEncoding = errors.New("image payload is not valid base64")
	ErrNotImage    = errors.New("payload is not an image")
	ErrNotFound    = errors.New("blob not found")
)

// Store keeps uploaded images in Badger, keyed blob:<uuid>. A stored value is
// framed as one length byte, the content type, then the raw bytes; blobs are
// immutable once written.
type Store struct {
	db *badger.DB
}

func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Put decodes a base64 or data-URI payload, verifies it really is an image,
// and stores it. The returned ref is the serving path for GET /blobs/{id}.
func (s *Store) Put(_ context.Context, payload string) (string, error) {
	data, err := decode(payload)
	if err != nil {
		return "", err
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	id := uuid.NewString()
	value := frame(mt.String(), data)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+id), value)
	})
	if err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return "/blobs/" + id, nil
}

// Get returns the stored bytes and their content type.
func (s *Store) Get(_ context.Context, id string) ([]byte, string, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load blob: %w", err)
	}

	contentType, data, err := unframe(value)
	if err != nil {
		return nil, "", fmt.Errorf("blob %s: %w", id, err)
	}
	return data, contentType, nil
}

// decode accepts either raw base64 or a browser data URI
// (data:image/png;base64,....).
func decode(payload string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		_, b64, found := strings.Cut(rest, ",")
		if !found {
			return nil, ErrBadEncoding
		}
		payload = b64
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	return data, nil
}

func frame(contentType string, data []byte) []byte {
	buf := make([]byte, 0, 1+len(contentType)+len(data))
	buf = append(buf, byte(len(contentType)))
	buf = append(buf, contentType...)
	return append(buf, data...)
}

func unframe(value []byte) (string, []byte, error) {
	if len(value) == 0 {
		return "", nil, errors.New("empty value")
	}
	n := int(value[0])
	if len(value) < 1+n {
		return "", nil, errors.New("corrupt value")
	}
	return string(value[1 : 1+n]), value[1+n:], nil
}
