package storage

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Storage keys
const (
	keyStats   = "stats"
	gamePrefix = "game/"
)

// Results in PGN notation
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
	ResultUnknown   = "*"
)

// ErrNotFound is returned when a game is not in the journal.
var ErrNotFound = errors.New("game not found")

// GameRecord is one journaled game.
type GameRecord struct {
	ID          string        `json:"id"`
	White       string        `json:"white"`
	Black       string        `json:"black"`
	StartFEN    string        `json:"start_fen,omitempty"`
	Result      string        `json:"result"`
	Termination string        `json:"termination"`
	PGN         string        `json:"pgn,omitempty"`
	Moves       []string      `json:"moves"`
	Plies       int           `json:"plies"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
}

// GameStats aggregates every recorded game.
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	Unfinished    int            `json:"unfinished"`
	TotalPlies    int            `json:"total_plies"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
	WinsByPlayer  map[string]int `json:"wins_by_player"`
	ByTermination map[string]int `json:"by_termination"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByPlayer:  make(map[string]int),
		ByTermination: make(map[string]int),
	}
}

// AveragePlies returns the mean game length in plies.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

// DrawRate returns the share of drawn games as a percentage (0-100).
func (s *GameStats) DrawRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Draws) / float64(s.GamesPlayed) * 100
}

func (s *GameStats) add(rec *GameRecord) {
	s.GamesPlayed++
	s.TotalPlies += rec.Plies
	s.TotalPlayTime += rec.Duration
	if rec.Termination != "" {
		s.ByTermination[rec.Termination]++
	}

	switch rec.Result {
	case ResultWhiteWins:
		s.WhiteWins++
		s.WinsByPlayer[rec.White]++
	case ResultBlackWins:
		s.BlackWins++
		s.WinsByPlayer[rec.Black]++
	case ResultDraw:
		s.Draws++
	default:
		s.Unfinished++
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the journal in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a journal in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a journal that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewGameID returns a fresh game identifier.
func NewGameID() string {
	return uuid.NewString()
}

// SaveGame stores rec, assigning an ID when it has none.
// Statistics are not touched; use RecordGame for finished games.
func (s *Storage) SaveGame(rec *GameRecord) error {
	if rec.ID == "" {
		rec.ID = NewGameID()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode game")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(gamePrefix+rec.ID), data)
	})
}

// LoadGame returns the game with the given ID.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrapf(ErrNotFound, "invalid id %q", id)
	}

	rec := &GameRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(gamePrefix + id))
		if err == badger.ErrKeyNotFound {
			return errors.Wrap(ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListGames returns up to limit games, most recently started first.
// A limit of 0 returns every game.
func (s *Storage) ListGames(limit int) ([]*GameRecord, error) {
	var games []*GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rec := &GameRecord{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			}); err != nil {
				return errors.Wrapf(err, "decode %s", it.Item().Key())
			}
			games = append(games, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].Started.After(games[j].Started)
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "encode stats")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	var stats *GameStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*GameStats, error) {
	stats := NewGameStats()
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	return stats, errors.Wrap(err, "decode stats")
}

// RecordGame stores a finished game and folds it into the statistics in a
// single transaction.
func (s *Storage) RecordGame(rec *GameRecord) error {
	if rec.ID == "" {
		rec.ID = NewGameID()
	}
	if rec.Plies == 0 {
		rec.Plies = len(rec.Moves)
	}
	game, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode game")
	}

	// Concurrent writers race on the stats key; badger reports the loser.
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			return recordGame(txn, rec, game)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

func recordGame(txn *badger.Txn, rec *GameRecord, game []byte) error {
	stats, err := loadStats(txn)
	if err != nil {
		return err
	}
	stats.add(rec)
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "encode stats")
	}
	if err := txn.Set([]byte(gamePrefix+rec.ID), game); err != nil {
		return err
	}
	return txn.Set([]byte(keyStats), data)
}
