// Package store persists plan states in an embedded BadgerDB so a student's
// plan survives between CLI invocations.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/planning"
)

const keyPrefix = "plan/"

// PlanStore saves and loads planning.State values keyed by plan ID.
type PlanStore struct {
	db     *badger.DB
	logger *slog.Logger
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates a store in the directory at path.
func Open(path string, logger *slog.Logger) (*PlanStore, error) {
	if path == "" {
		return nil, errs.Configuration("plan store path is required")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create plan store directory %s: %w", path, err)
	}
	return open(badger.DefaultOptions(path).WithSyncWrites(true), logger)
}

// InMemory opens a store that keeps nothing on disk.
func InMemory(logger *slog.Logger) (*PlanStore, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger *slog.Logger) (*PlanStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{logger: logger})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open plan store: %w", err)
	}
	return &PlanStore{db: db, logger: logger}, nil
}

func (s *PlanStore) Close() error {
	return s.db.Close()
}

func planKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// Save writes state under its ID, replacing any earlier version.
func (s *PlanStore) Save(state planning.State) error {
	if state.ID == "" {
		return errs.InvalidInput("plan state has no id")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(planKey(state.ID), data)
	}); err != nil {
		return fmt.Errorf("save plan %s: %w", state.ID, err)
	}
	s.logger.Debug("Saved plan", "plan", state.ID, "version", state.Version)
	return nil
}

// Load returns the state saved under id.
func (s *PlanStore) Load(id string) (planning.State, error) {
	var state planning.State
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(planKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return planning.State{}, errs.NotFound("plan %s", id)
	}
	if err != nil {
		return planning.State{}, fmt.Errorf("load plan %s: %w", id, err)
	}
	return state, nil
}

// Delete removes the plan saved under id. Deleting a missing plan is not an
// error.
func (s *PlanStore) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(planKey(id))
	})
}

// List returns the IDs of every saved plan, sorted.
func (s *PlanStore) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
