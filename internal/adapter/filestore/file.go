package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
	imetrics "github.com/pancudaniel7/address-relay-service/internal/pkg/metrics"
)

const (
	addressesFile    = "addresses.json"
	webhookFile      = "webhook.json"
	transactionsFile = "transactions.json"
	filePerm         = 0o644
	dirPerm          = 0o755
)

type webhookDoc struct {
	URL string `json:"url"`
}

// FileStore keeps one JSON document per concern under Config.Dir. Every write
// goes to a temp file first and is renamed into place, so a crash leaves
// either the old or the new document.
//
// Concurrency: a single mutex serializes all access; the documents are small.
type FileStore struct {
	fs        afero.Fs
	log       applog.AppLogger
	validator *validator.Validate
	cfg       Config
	mu        sync.Mutex
}

var _ port.PersistenceAdapter = (*FileStore)(nil)

// NewFileStore validates cfg and creates the data directory on fs if needed.
func NewFileStore(log applog.AppLogger, v *validator.Validate, fs afero.Fs, cfg *Config) (*FileStore, error) {
	if err := v.Struct(cfg); err != nil {
		log.Error("invalid file store config", "err", err)
		return nil, apperr.NewInvalidArgErr("invalid file store config", err)
	}
	exists, err := afero.DirExists(fs, cfg.Dir)
	if err != nil {
		return nil, apperr.NewPersistenceErr("failed to stat data dir", err)
	}
	if !exists {
		if err := fs.MkdirAll(cfg.Dir, dirPerm); err != nil {
			return nil, apperr.NewPersistenceErr("failed to create data dir", err)
		}
	}
	return &FileStore{fs: fs, log: log, validator: v, cfg: *cfg}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.cfg.Dir, name)
}

// readDoc decodes name into out. A missing file leaves out untouched.
func (s *FileStore) readDoc(name string, out any) error {
	data, err := afero.ReadFile(s.fs, s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (s *FileStore) writeDoc(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(name + ".tmp")
	if err := afero.WriteFile(s.fs, tmp, data, filePerm); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, s.path(name)); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) fail(op string, err error) error {
	imetrics.App().ErrorsTotal.WithLabelValues(imetrics.ComponentFile, op).Inc()
	s.log.Warn("File store operation failed", "op", op, "dir", s.cfg.Dir, "err", err)
	return apperr.NewPersistenceErr("file store "+op+" failed", err)
}

func (s *FileStore) GetAddresses(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var addrs []string
	if err := s.readDoc(addressesFile, &addrs); err != nil {
		return nil, s.fail("get_addresses", err)
	}
	return addrs, nil
}

func (s *FileStore) SetAddresses(_ context.Context, addrs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addrs == nil {
		addrs = []string{}
	}
	if err := s.writeDoc(addressesFile, addrs); err != nil {
		return s.fail("set_addresses", err)
	}
	return nil
}

func (s *FileStore) GetWebhookURL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc webhookDoc
	if err := s.readDoc(webhookFile, &doc); err != nil {
		return "", s.fail("get_webhook", err)
	}
	return doc.URL, nil
}

func (s *FileStore) SetWebhookURL(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeDoc(webhookFile, webhookDoc{URL: url}); err != nil {
		return s.fail("set_webhook", err)
	}
	return nil
}

// AppendLog prepends rec and trims the document to the configured retention.
func (s *FileStore) AppendLog(_ context.Context, rec entity.TransactionRecord) error {
	if err := s.validator.Struct(rec); err != nil {
		return apperr.NewInvalidArgErr("invalid transaction record", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []entity.TransactionRecord
	if err := s.readDoc(transactionsFile, &recs); err != nil {
		return s.fail("append_log", err)
	}
	recs = append([]entity.TransactionRecord{rec}, recs...)
	if len(recs) > s.cfg.LogRetention {
		recs = recs[:s.cfg.LogRetention]
	}
	if err := s.writeDoc(transactionsFile, recs); err != nil {
		return s.fail("append_log", err)
	}
	return nil
}

func (s *FileStore) ReadLog(_ context.Context, limit int) ([]entity.TransactionRecord, error) {
	if limit <= 0 {
		return []entity.TransactionRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []entity.TransactionRecord
	if err := s.readDoc(transactionsFile, &recs); err != nil {
		return nil, s.fail("read_log", err)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	if recs == nil {
		recs = []entity.TransactionRecord{}
	}
	return recs, nil
}

func (s *FileStore) Close() error { return nil }
