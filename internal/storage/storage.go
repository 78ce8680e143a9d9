package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/shallownnue/internal/logx"
)

// Storage keys
const (
	keyStats   = "stats"
	evalPrefix = "eval/"
)

// AuditStats accumulates the results of every PGN audit run.
type AuditStats struct {
	Runs          int            `json:"runs"`
	Games         int            `json:"games"`
	Plies         int            `json:"plies"`
	Mismatches    int            `json:"mismatches"`
	Rejected      int            `json:"rejected"`
	MovesByKind   map[string]int `json:"moves_by_kind"`
	TotalDuration time.Duration  `json:"total_duration"`
	LastFile      string         `json:"last_file"`
	LastRun       time.Time      `json:"last_run"`
	CleanStreak   int            `json:"clean_streak"`
}

// NewAuditStats returns empty statistics
func NewAuditStats() *AuditStats {
	return &AuditStats{
		MovesByKind: make(map[string]int),
	}
}

// AuditResult is the outcome of a single audit run.
type AuditResult struct {
	File        string
	Games       int
	Plies       int
	Mismatches  int
	Rejected    int
	MovesByKind map[string]int
	Duration    time.Duration
}

// Storage wraps BadgerDB for the evaluation cache and audit statistics.
type Storage struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (or creates) a store in dir. Badger's own messages are routed
// to log at warning level and above.
func Open(dir string, log zerolog.Logger) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = logx.Badger{Log: log.Level(zerolog.WarnLevel)}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("dir", dir).Msg("storage opened")
	return &Storage{db: db, log: log}, nil
}

// OpenDefault opens the store in the platform database directory.
func OpenDefault(log zerolog.Logger) (*Storage, error) {
	dbDir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir, log)
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// evalKey is "eval/" followed by the model fingerprint and the position
// hash, both big-endian, so entries of one model share a prefix.
func evalKey(model, hash uint64) []byte {
	key := make([]byte, len(evalPrefix)+16)
	copy(key, evalPrefix)
	binary.BigEndian.PutUint64(key[len(evalPrefix):], model)
	binary.BigEndian.PutUint64(key[len(evalPrefix)+8:], hash)
	return key
}

// GetEval looks up a cached score for the position hash under the given
// model. ok is false on a miss.
func (s *Storage) GetEval(model, hash uint64) (score int, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(evalKey(model, hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if len(val) != 4 {
				s.log.Warn().Uint64("hash", hash).Int("len", len(val)).Msg("ignoring malformed cache entry")
				return nil
			}
			score = int(int32(binary.BigEndian.Uint32(val)))
			ok = true
			return nil
		})
	})
	return score, ok, err
}

// PutEval stores a score for the position hash under the given model.
func (s *Storage) PutEval(model, hash uint64, score int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(evalKey(model, hash), encodeScore(score))
	})
}

// PutEvals stores many scores for one model in a single batch.
func (s *Storage) PutEvals(model uint64, scores map[uint64]int) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for hash, score := range scores {
		if err := wb.Set(evalKey(model, hash), encodeScore(score)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// DropModel deletes every cached score of a model.
func (s *Storage) DropModel(model uint64) error {
	prefix := evalKey(model, 0)[:len(evalPrefix)+8]
	return s.db.DropPrefix(prefix)
}

// CountEvals returns the number of cached scores of a model.
func (s *Storage) CountEvals(model uint64) (int, error) {
	prefix := evalKey(model, 0)[:len(evalPrefix)+8]
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func encodeScore(score int) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(int32(score)))
	return buf[:]
}

// SaveStats saves audit statistics
func (s *Storage) SaveStats(stats *AuditStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads audit statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*AuditStats, error) {
	stats := NewAuditStats()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Use empty stats
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	if stats.MovesByKind == nil {
		stats.MovesByKind = make(map[string]int)
	}

	return stats, err
}

// RecordAudit folds one audit run into the stored statistics.
func (s *Storage) RecordAudit(result AuditResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.Runs++
	stats.Games += result.Games
	stats.Plies += result.Plies
	stats.Mismatches += result.Mismatches
	stats.Rejected += result.Rejected
	stats.TotalDuration += result.Duration
	stats.LastFile = result.File
	stats.LastRun = time.Now()
	for kind, n := range result.MovesByKind {
		stats.MovesByKind[kind] += n
	}

	if result.Mismatches == 0 {
		stats.CleanStreak++
	} else {
		stats.CleanStreak = 0
	}

	return s.SaveStats(stats)
}

// MismatchRate returns mismatching plies as a percentage (0-100)
func (s *AuditStats) MismatchRate() float64 {
	if s.Plies == 0 {
		return 0
	}
	return float64(s.Mismatches) / float64(s.Plies) * 100
}
