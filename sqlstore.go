package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore implements Store on SQLite, MySQL or PostgreSQL. Documents that
// Firestore kept as nested maps (stats, challenge sets) are stored as JSON.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQLStore connects to driver ("sqlite", "mysql" or "postgres") and pings it.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite", "postgres":
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		// Unchanged UPDATEs must still report the row as affected for upserts.
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One writer at a time; also keeps ":memory:" databases on one connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &SQLStore{db: db}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS leaderboard_entries (
		id VARCHAR(64) PRIMARY KEY,
		game VARCHAR(64) NOT NULL,
		name VARCHAR(128) NOT NULL,
		score BIGINT NOT NULL,
		difficulty VARCHAR(16) NOT NULL,
		time_seconds BIGINT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS player_stats (
		player VARCHAR(128) PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS daily_challenges (
		player VARCHAR(128) NOT NULL,
		day VARCHAR(10) NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (player, day)
	)`,
	`CREATE TABLE IF NOT EXISTS achievement_unlocks (
		player VARCHAR(128) NOT NULL,
		achievement_id VARCHAR(64) NOT NULL,
		unlocked_at BIGINT NOT NULL,
		PRIMARY KEY (player, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_questions (
		id VARCHAR(64) PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		enabled INTEGER NOT NULL,
		position INTEGER NOT NULL
	)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so duplicates are ignored instead.
var indexes = []string{
	`CREATE INDEX idx_leaderboard_game ON leaderboard_entries (game)`,
}

// Migrate creates tables and indexes that do not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, stmt := range indexes {
		_, err := s.db.ExecContext(ctx, stmt)
		if err != nil && !isDuplicateIndex(err) {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

type entryRow struct {
	ID          string        `db:"id"`
	Game        string        `db:"game"`
	Name        string        `db:"name"`
	Score       int64         `db:"score"`
	Difficulty  string        `db:"difficulty"`
	TimeSeconds sql.NullInt64 `db:"time_seconds"`
	CreatedAt   int64         `db:"created_at"`
}

func (r entryRow) entry() LeaderboardEntry {
	e := LeaderboardEntry{
		ID:         r.ID,
		Game:       r.Game,
		Name:       r.Name,
		Score:      r.Score,
		Difficulty: Difficulty(r.Difficulty),
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
	}
	if r.TimeSeconds.Valid {
		t := r.TimeSeconds.Int64
		e.Time = &t
	}
	return e
}

func (s *SQLStore) AddScore(ctx context.Context, e LeaderboardEntry) error {
	var ts sql.NullInt64
	if e.Time != nil {
		ts = sql.NullInt64{Int64: *e.Time, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO leaderboard_entries (id, game, name, score, difficulty, time_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Game, e.Name, e.Score, string(e.Difficulty), ts, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *SQLStore) Scores(ctx context.Context, game string) ([]LeaderboardEntry, error) {
	var rows []entryRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT id, game, name, score, difficulty, time_seconds, created_at
		 FROM leaderboard_entries WHERE game = ?`), game)
	if err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	list := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.entry())
	}
	return list, nil
}

func (s *SQLStore) DeleteScore(ctx context.Context, game, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM leaderboard_entries WHERE game = ? AND id = ?`), game, id)
	if err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) ClearScores(ctx context.Context, game string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM leaderboard_entries WHERE game = ?`), game)
	if err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return nil
}

func (s *SQLStore) PlayerStats(ctx context.Context, player string) (*PlayerStats, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.db.Rebind(`SELECT data FROM player_stats WHERE player = ?`), player)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	st := newPlayerStats(player)
	if err := json.Unmarshal([]byte(data), st); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

func (s *SQLStore) SavePlayerStats(ctx context.Context, st *PlayerStats) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	updated := st.UpdatedAt.UnixMilli()
	return s.upsert(ctx,
		`UPDATE player_stats SET data = ?, updated_at = ? WHERE player = ?`,
		[]any{string(data), updated, st.Player},
		`INSERT INTO player_stats (player, data, updated_at) VALUES (?, ?, ?)`,
		[]any{st.Player, string(data), updated},
	)
}

func (s *SQLStore) ListPlayerStats(ctx context.Context) ([]*PlayerStats, error) {
	var rows []struct {
		Player string `db:"player"`
		Data   string `db:"data"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT player, data FROM player_stats ORDER BY player`); err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	list := make([]*PlayerStats, 0, len(rows))
	for _, r := range rows {
		st := newPlayerStats(r.Player)
		if err := json.Unmarshal([]byte(r.Data), st); err != nil {
			return nil, fmt.Errorf("decode stats for %s: %w", r.Player, err)
		}
		list = append(list, st)
	}
	return list, nil
}

func (s *SQLStore) ChallengeSet(ctx context.Context, player, day string) (*ChallengeSet, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.db.Rebind(
		`SELECT data FROM daily_challenges WHERE player = ? AND day = ?`), player, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select challenges: %w", err)
	}
	var cs ChallengeSet
	if err := json.Unmarshal([]byte(data), &cs); err != nil {
		return nil, fmt.Errorf("decode challenges: %w", err)
	}
	return &cs, nil
}

func (s *SQLStore) SaveChallengeSet(ctx context.Context, cs *ChallengeSet) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("encode challenges: %w", err)
	}
	return s.upsert(ctx,
		`UPDATE daily_challenges SET data = ? WHERE player = ? AND day = ?`,
		[]any{string(data), cs.Player, cs.Day},
		`INSERT INTO daily_challenges (player, day, data) VALUES (?, ?, ?)`,
		[]any{cs.Player, cs.Day, string(data)},
	)
}

func (s *SQLStore) Unlocks(ctx context.Context, player string) ([]Unlock, error) {
	var rows []struct {
		AchievementID string `db:"achievement_id"`
		UnlockedAt    int64  `db:"unlocked_at"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT achievement_id, unlocked_at FROM achievement_unlocks WHERE player = ? ORDER BY unlocked_at`), player)
	if err != nil {
		return nil, fmt.Errorf("select unlocks: %w", err)
	}
	list := make([]Unlock, 0, len(rows))
	for _, r := range rows {
		list = append(list, Unlock{
			Player:        player,
			AchievementID: r.AchievementID,
			UnlockedAt:    time.UnixMilli(r.UnlockedAt).UTC(),
		})
	}
	return list, nil
}

func (s *SQLStore) SaveUnlock(ctx context.Context, u Unlock) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var n int
	err = tx.GetContext(ctx, &n, tx.Rebind(
		`SELECT COUNT(*) FROM achievement_unlocks WHERE player = ? AND achievement_id = ?`),
		u.Player, u.AchievementID)
	if err != nil {
		return false, fmt.Errorf("count unlock: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO achievement_unlocks (player, achievement_id, unlocked_at) VALUES (?, ?, ?)`),
		u.Player, u.AchievementID, u.UnlockedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("insert unlock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

type questionRow struct {
	ID       string `db:"id"`
	Question string `db:"question"`
	Answer   string `db:"answer"`
	Enabled  int    `db:"enabled"`
	Position int    `db:"position"`
}

func (r questionRow) question() QuizQuestion {
	return QuizQuestion{
		ID:       r.ID,
		Question: r.Question,
		Answer:   r.Answer,
		Enabled:  r.Enabled != 0,
		Order:    r.Position,
	}
}

func (s *SQLStore) QuizQuestions(ctx context.Context) ([]QuizQuestion, error) {
	var rows []questionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, question, answer, enabled, position FROM quiz_questions ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	list := make([]QuizQuestion, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.question())
	}
	return list, nil
}

func (s *SQLStore) QuizQuestion(ctx context.Context, id string) (*QuizQuestion, error) {
	var r questionRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(
		`SELECT id, question, answer, enabled, position FROM quiz_questions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select question: %w", err)
	}
	q := r.question()
	return &q, nil
}

func (s *SQLStore) SaveQuizQuestion(ctx context.Context, q QuizQuestion) error {
	enabled := 0
	if q.Enabled {
		enabled = 1
	}
	return s.upsert(ctx,
		`UPDATE quiz_questions SET question = ?, answer = ?, enabled = ?, position = ? WHERE id = ?`,
		[]any{q.Question, q.Answer, enabled, q.Order, q.ID},
		`INSERT INTO quiz_questions (id, question, answer, enabled, position) VALUES (?, ?, ?, ?, ?)`,
		[]any{q.ID, q.Question, q.Answer, enabled, q.Order},
	)
}

func (s *SQLStore) DeleteQuizQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM quiz_questions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// upsert runs update and falls back to insert when no row matched, inside
// one transaction. It avoids dialect-specific ON CONFLICT syntax.
func (s *SQLStore) upsert(ctx context.Context, update string, updateArgs []any, insert string, insertArgs []any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(update), updateArgs...)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insert), insertArgs...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
