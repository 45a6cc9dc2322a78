package observer

import (
	"bytes"
	"encoding/gob"
	"errors"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/mqc"
)

var errNoBuffer = errors.New("offline buffer is not initialized")

// MQCBuffer keeps records a target failed to ship so they can be re-sent
// after the next successful save.
//
// Records are gob encoded and stored in BadgerDB under their Hash, with a TTL
// that bounds the size of the buffer.
type MQCBuffer struct {
	ttl  time.Duration
	path string
	db   *badger.DB
}

// NewMQCBuffer opens the buffer stored in bufferPath. ttl is given in hours;
// a buffer with a non-positive ttl is disabled and never touches the disk.
func NewMQCBuffer(bufferPath string, ttl int64) (*MQCBuffer, error) {
	b := &MQCBuffer{
		ttl:  time.Duration(ttl) * time.Hour,
		path: bufferPath,
	}
	if b.ttl <= 0 {
		return b, nil
	}

	db, err := badger.Open(badger.DefaultOptions(bufferPath).WithLogger(logger.Default()))
	if err != nil {
		return nil, err
	}
	b.db = db
	logger.Debug("Initialized BadgerDB for offline buffering", slog.String("path", bufferPath))
	return b, nil
}

// Enabled reports whether records are buffered.
func (b *MQCBuffer) Enabled() bool {
	return b != nil && b.db != nil
}

// Close releases the database.
func (b *MQCBuffer) Close() {
	if b.Enabled() {
		if err := b.db.Close(); err != nil {
			logger.Error("Failed to close offline buffer", slog.String("path", b.path), slog.Any("error", err))
		}
		b.db = nil
	}
}

// keyPrefix matches the prefix of the Hash of every record of the export kind.
func keyPrefix(export string) []byte {
	if export == mqc.FINDING {
		return []byte("finding_")
	}
	return []byte("data_")
}

func exportName[T mqc.Export]() string {
	var zero T
	return zero.GetExportName()
}

func encode[T mqc.Export](item T) ([]byte, error) {
	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(item); err != nil {
		return nil, err
	}
	return value.Bytes(), nil
}

func decode[T mqc.Export](val []byte) (T, error) {
	var t T
	err := gob.NewDecoder(bytes.NewReader(val)).Decode(&t)
	return t, err
}

func saveToBuffer[T mqc.Export](b *MQCBuffer, toBuffer []T) error {
	if !b.Enabled() {
		return errNoBuffer
	}

	txn := b.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	for _, item := range toBuffer {
		value, err := encode(item)
		if err != nil {
			logger.Error("Failed to encode for buffer", slog.String("path", b.path), slog.Any("error", err))
			continue
		}
		e := badger.NewEntry(item.Hash(), value).WithTTL(b.ttl)
		err = txn.SetEntry(e)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err = txn.Commit(); err != nil {
				return err
			}
			txn = b.db.NewTransaction(true)
			err = txn.SetEntry(e)
		}
		if err != nil {
			return err
		}
	}
	return txn.Commit()
}

func fetchFromBuffer[T mqc.Export](b *MQCBuffer, batchSize int) (buffered []T, err error) {
	if !b.Enabled() {
		return nil, errNoBuffer
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = batchSize
	opts.Prefix = keyPrefix(exportName[T]())

	txn := b.db.NewTransaction(false)
	defer txn.Discard()
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid() && len(buffered) < batchSize; it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			logger.Error("Failed to copy value from buffer", slog.String("path", b.path), slog.Any("error", err))
			continue
		}
		decoded, err := decode[T](val)
		if err != nil {
			logger.Error("Failed to decode from buffer", slog.String("path", b.path), slog.Any("error", err))
			continue
		}
		buffered = append(buffered, decoded)
	}
	return buffered, nil
}

func deleteFromBuffer[T mqc.Export](b *MQCBuffer, buffered []T) error {
	if !b.Enabled() {
		return errNoBuffer
	}

	txn := b.db.NewTransaction(true)
	defer txn.Discard()
	for _, item := range buffered {
		if err := txn.Delete(item.Hash()); err != nil {
			logger.Error("Failed to delete from buffer", slog.String("path", b.path), slog.Any("error", err))
		}
	}
	return txn.Commit()
}
