package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/libarea/search/internal/errs"
	"github.com/libarea/search/internal/model"
)

// execer is the subset of *sql.DB / *sql.Tx that sqliteStorage needs,
// letting every method run against either the pooled handle or the
// in-flight reentrant transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteStorage is the shared implementation for both the pure-Go
// (modernc.org/sqlite) and cgo (mattn/go-sqlite3) dialects: the only
// difference between the two is which driver name was passed to sql.Open,
// see sqlite_purego.go / sqlite_cgo.go.
type sqliteStorage struct {
	db         *sql.DB
	tables     tableNames
	excludes   *excludeList
	Threshold  int

	mu                sync.Mutex
	tx                *sql.Tx
	txDepth           int
	rollbackRequested bool
}

// sqlitePragmas mirrors the WAL-mode pragma list used for concurrent
// multi-process access: a single writer, snapshot-isolated readers.
var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = -65536",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA foreign_keys = ON",
}

func openSQLite(driverName, dsn string, tablePrefix string, excludeThreshold int) (*sqliteStorage, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL still gives readers snapshot isolation
	db.SetConnMaxLifetime(0)

	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", pragma, err)
		}
	}

	tables := newTableNames(tablePrefix)
	if _, err := db.Exec(tables.schemaDDL()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	s := &sqliteStorage{db: db, tables: tables, Threshold: excludeThreshold}
	s.excludes = newExcludeList(db, tables, excludeThreshold)
	return s, nil
}

// exec returns the execer to use for the current call: the in-flight
// reentrant transaction if one is open, otherwise the pooled db handle.
func (s *sqliteStorage) exec() execer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// --- transactions ---------------------------------------------------------

func (s *sqliteStorage) StartTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txDepth > 0 {
		s.txDepth++
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	s.tx = tx
	s.txDepth = 1
	s.rollbackRequested = false
	return nil
}

func (s *sqliteStorage) CommitTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txDepth == 0 {
		return errs.InvalidArgumentf("commitTransaction called with no open transaction")
	}
	s.txDepth--
	if s.txDepth > 0 {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if s.rollbackRequested {
		s.rollbackRequested = false
		if err := tx.Rollback(); err != nil {
			return classify(err)
		}
		return nil
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

func (s *sqliteStorage) RollbackTransaction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txDepth == 0 {
		return nil
	}
	s.rollbackRequested = true
	s.txDepth--
	if s.txDepth > 0 {
		return nil
	}
	tx := s.tx
	s.tx = nil
	s.rollbackRequested = false
	if err := tx.Rollback(); err != nil {
		return classify(err)
	}
	return nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// --- schema lifecycle ------------------------------------------------------

func (s *sqliteStorage) Erase(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.tables.dropDDL()); err != nil {
		return classify(err)
	}
	if _, err := s.db.ExecContext(ctx, s.tables.schemaDDL()); err != nil {
		return classify(err)
	}
	s.excludes.refresh()
	return nil
}

func (s *sqliteStorage) Drop(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.tables.dropDDL()); err != nil {
		return classify(err)
	}
	return nil
}

// --- TOC --------------------------------------------------------------

func (s *sqliteStorage) AddEntryToToc(ctx context.Context, entry model.TocEntry) error {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return errs.InvalidArgumentf("marshal toc metadata: %v", err)
	}
	var dateValue any
	if entry.Date != nil {
		dateValue = entry.Date.Unix()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (external_id, instance_id, title, url, hash, relevance_ratio, date_value, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id, instance_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			hash = excluded.hash,
			relevance_ratio = excluded.relevance_ratio,
			date_value = excluded.date_value,
			metadata_json = excluded.metadata_json
	`, s.tables.toc())

	_, err = s.exec().ExecContext(ctx, query,
		entry.ExternalID.ID, entry.ExternalID.InstanceID, entry.Title, entry.URL, entry.Hash,
		entry.NormalizedRelevanceRatio(), dateValue, string(metaJSON))
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *sqliteStorage) selectInternalID(ctx context.Context, externalID model.ExternalID) (int, bool, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE external_id = ? AND instance_id = ?`, s.tables.toc())
	var id int
	err := s.exec().QueryRowContext(ctx, query, externalID.ID, externalID.InstanceID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(err)
	}
	return id, true, nil
}

func (s *sqliteStorage) GetTocByExternalID(ctx context.Context, externalID model.ExternalID) (model.TocEntry, bool, error) {
	query := fmt.Sprintf(`
		SELECT title, url, hash, relevance_ratio, date_value, metadata_json
		FROM %s WHERE external_id = ? AND instance_id = ?`, s.tables.toc())
	row := s.exec().QueryRowContext(ctx, query, externalID.ID, externalID.InstanceID)

	var title, url, hash, metaJSON string
	var relevance float64
	var dateValue sql.NullInt64
	if err := row.Scan(&title, &url, &hash, &relevance, &dateValue, &metaJSON); err != nil {
		if err == sql.ErrNoRows {
			return model.TocEntry{}, false, nil
		}
		return model.TocEntry{}, false, classify(err)
	}

	entry := model.TocEntry{
		ExternalID:             externalID,
		Title:                  title,
		URL:                    url,
		Hash:                   hash,
		ExternalRelevanceRatio: relevance,
	}
	if dateValue.Valid {
		t := time.Unix(dateValue.Int64, 0).UTC()
		entry.Date = &t
	}
	_ = json.Unmarshal([]byte(metaJSON), &entry.Metadata)
	return entry, true, nil
}

func (s *sqliteStorage) GetTocByExternalIDs(ctx context.Context, externalIDs []model.ExternalID) ([]model.TocEntryWithMetadata, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	out := make([]model.TocEntryWithMetadata, 0, len(externalIDs))
	for _, eid := range externalIDs {
		entry, ok, err := s.GetTocByExternalID(ctx, eid)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		internalID, ok, err := s.selectInternalID(ctx, eid)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		wordCount, _ := s.wordCountFor(ctx, internalID)
		out = append(out, model.TocEntryWithMetadata{InternalID: internalID, Entry: entry, WordCount: wordCount})
	}
	return out, nil
}

func (s *sqliteStorage) wordCountFor(ctx context.Context, internalID int) (int, error) {
	query := fmt.Sprintf(`SELECT word_count FROM %s WHERE toc_id = ?`, s.tables.metadata())
	var wc int
	err := s.exec().QueryRowContext(ctx, query, internalID).Scan(&wc)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, classify(err)
	}
	return wc, nil
}

func (s *sqliteStorage) RemoveFromToc(ctx context.Context, externalID model.ExternalID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE external_id = ? AND instance_id = ?`, s.tables.toc())
	_, err := s.exec().ExecContext(ctx, query, externalID.ID, externalID.InstanceID)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *sqliteStorage) RemoveFromIndex(ctx context.Context, externalID model.ExternalID) error {
	internalID, ok, err := s.selectInternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if !ok {
		return nil // idempotent: absence is not an error
	}
	stmts := []string{
		fmt.Sprintf(`DELETE FROM %s WHERE toc_id = ?`, s.tables.fulltext()),
		fmt.Sprintf(`DELETE FROM %s WHERE toc_id = ?`, s.tables.metadata()),
		fmt.Sprintf(`DELETE FROM %s WHERE toc_id = ?`, s.tables.snippet()),
	}
	for _, q := range stmts {
		if _, err := s.exec().ExecContext(ctx, q, internalID); err != nil {
			return classify(err)
		}
	}
	return nil
}

// --- words & fulltext -------------------------------------------------

func (s *sqliteStorage) wordID(ctx context.Context, word string) (int, error) {
	truncated := model.TruncateWord(word)
	exec := s.exec()

	insertQuery := fmt.Sprintf(`INSERT INTO %s (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, s.tables.word())
	if _, err := exec.ExecContext(ctx, insertQuery, truncated); err != nil {
		return 0, classify(err)
	}
	selectQuery := fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, s.tables.word())
	var id int
	if err := exec.QueryRowContext(ctx, selectQuery, truncated).Scan(&id); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

func (s *sqliteStorage) AddToFulltextIndex(ctx context.Context, externalID model.ExternalID, titleWords, keywordWords, contentWords map[model.Position]string) error {
	internalID, ok, err := s.selectInternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.UnknownIdErr(externalID.String())
	}

	// byWord[word] = packed field-position tokens for that stem.
	byWord := make(map[string][]model.FieldPosition)
	addAll := func(field model.Field, words map[model.Position]string) {
		for pos, stem := range words {
			byWord[stem] = append(byWord[stem], model.FieldPosition{Field: field, Position: pos})
		}
	}
	addAll(model.FieldTitle, titleWords)
	addAll(model.FieldKeyword, keywordWords)
	addAll(model.FieldContent, contentWords)

	upsertQuery := fmt.Sprintf(`
		INSERT INTO %s (word_id, toc_id, positions) VALUES (?, ?, ?)
		ON CONFLICT(word_id, toc_id) DO UPDATE SET
			positions = %s.positions || ',' || excluded.positions
	`, s.tables.fulltext(), s.tables.fulltext())

	for word, positions := range byWord {
		wordID, err := s.wordID(ctx, word)
		if err != nil {
			return err
		}
		packed := model.PackPositions(positions)
		if _, err := s.exec().ExecContext(ctx, upsertQuery, wordID, internalID, packed); err != nil {
			return classify(err)
		}
	}
	return nil
}

func (s *sqliteStorage) AddMetadata(ctx context.Context, externalID model.ExternalID, wordCount int, images []string) error {
	internalID, ok, err := s.selectInternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.UnknownIdErr(externalID.String())
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return errs.InvalidArgumentf("marshal images: %v", err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (toc_id, word_count, images_json) VALUES (?, ?, ?)
		ON CONFLICT(toc_id) DO UPDATE SET word_count = excluded.word_count, images_json = excluded.images_json
	`, s.tables.metadata())
	if _, err := s.exec().ExecContext(ctx, query, internalID, wordCount, string(imagesJSON)); err != nil {
		return classify(err)
	}
	return nil
}

func (s *sqliteStorage) AddSnippets(ctx context.Context, externalID model.ExternalID, sources []model.SnippetSource) error {
	internalID, ok, err := s.selectInternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.UnknownIdErr(externalID.String())
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (toc_id, min_word_pos, max_word_pos, snippet, format_id) VALUES (?, ?, ?, ?, ?)
	`, s.tables.snippet())
	for _, src := range sources {
		if _, err := s.exec().ExecContext(ctx, query, internalID, src.MinWordPos, src.MaxWordPos, src.Text, int(src.FormatID)); err != nil {
			return classify(err)
		}
	}
	return nil
}

// --- read path ----------------------------------------------------------

func (s *sqliteStorage) FulltextResultByWords(ctx context.Context, words []string, instanceID int) (model.FulltextIndexContent, error) {
	out := make(model.FulltextIndexContent, len(words))
	for _, word := range words {
		bags, err := s.positionBagsForWord(ctx, word, instanceID)
		if err != nil {
			return nil, err
		}
		out[word] = bags
	}
	return out, nil
}

func (s *sqliteStorage) positionBagsForWord(ctx context.Context, word string, instanceID int) ([]model.PositionBag, error) {
	query := fmt.Sprintf(`
		SELECT t.external_id, t.instance_id, t.relevance_ratio, f.positions, COALESCE(m.word_count, 0)
		FROM %s f
		JOIN %s w ON w.id = f.word_id
		JOIN %s t ON t.id = f.toc_id
		LEFT JOIN %s m ON m.toc_id = t.id
		WHERE w.name = ?`, s.tables.fulltext(), s.tables.word(), s.tables.toc(), s.tables.metadata())
	args := []any{model.TruncateWord(word)}
	if instanceID != 0 {
		query += ` AND t.instance_id = ?`
		args = append(args, instanceID)
	}

	rows, err := s.exec().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var bags []model.PositionBag
	for rows.Next() {
		var extID string
		var instID int
		var relevance float64
		var packed string
		var wordCount int
		if err := rows.Scan(&extID, &instID, &relevance, &packed, &wordCount); err != nil {
			return nil, classify(err)
		}
		fieldPositions, err := model.UnpackPositions(packed)
		if err != nil {
			return nil, errs.Wrap(errs.Unknown, "unpack positions", err)
		}
		bag := model.PositionBag{
			ExternalID:             model.ExternalID{ID: extID, InstanceID: instID},
			WordCount:              wordCount,
			ExternalRelevanceRatio: relevance,
		}
		for _, fp := range fieldPositions {
			switch fp.Field {
			case model.FieldTitle:
				bag.TitlePositions = append(bag.TitlePositions, fp.Position.Int())
			case model.FieldKeyword:
				bag.KeywordPositions = append(bag.KeywordPositions, fp.Position.Int())
			default:
				bag.ContentPositions = append(bag.ContentPositions, fp.Position.Int())
			}
		}
		bags = append(bags, bag)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return bags, nil
}

func (s *sqliteStorage) GetTocSize(ctx context.Context, instanceID int) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.tables.toc())
	args := []any{}
	if instanceID != 0 {
		query += ` WHERE instance_id = ?`
		args = append(args, instanceID)
	}
	var count int
	if err := s.exec().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

func (s *sqliteStorage) IsExcludedWord(ctx context.Context, word string) (bool, error) {
	return s.excludes.isExcludedWord(ctx, word)
}

// GetSnippets resolves the UNION of the matched-sentence set and a
// two-row-per-toc_id fallback set, ordered by (toc_id, max_word_pos).
//
// The fallback set is always unioned in, even for toc_ids with matched
// rows — an intentional, currently-unrevisited design choice. See the
// open-question decisions in SPEC_FULL.md for the reasoning.
func (s *sqliteStorage) GetSnippets(ctx context.Context, queries []SnippetQuery) ([]SnippetRow, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	tocIDs := make([]int, 0, len(queries))
	for _, q := range queries {
		tocIDs = append(tocIDs, q.TocID)
	}

	var matchedClauses []string
	var matchedArgs []any
	for _, q := range queries {
		for _, p := range q.Positions {
			matchedClauses = append(matchedClauses, `(toc_id = ? AND min_word_pos <= ? AND max_word_pos >= ?)`)
			matchedArgs = append(matchedArgs, q.TocID, p, p)
		}
	}

	placeholders := make([]string, len(tocIDs))
	fallbackArgs := make([]any, len(tocIDs))
	for i, id := range tocIDs {
		placeholders[i] = "?"
		fallbackArgs[i] = id
	}

	snippetTable := s.tables.snippet()
	var sb strings.Builder
	var args []any

	if len(matchedClauses) > 0 {
		fmt.Fprintf(&sb, `
			SELECT toc_id, min_word_pos, max_word_pos, snippet, format_id FROM %s
			WHERE %s
			UNION
		`, snippetTable, strings.Join(matchedClauses, " OR "))
		args = append(args, matchedArgs...)
	}

	fmt.Fprintf(&sb, `
		SELECT toc_id, min_word_pos, max_word_pos, snippet, format_id FROM (
			SELECT toc_id, min_word_pos, max_word_pos, snippet, format_id,
				ROW_NUMBER() OVER (PARTITION BY toc_id ORDER BY max_word_pos) AS rn
			FROM %s WHERE toc_id IN (%s)
		) WHERE rn <= 2
		ORDER BY toc_id, max_word_pos
	`, snippetTable, strings.Join(placeholders, ","))
	args = append(args, fallbackArgs...)

	rows, err := s.exec().QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []SnippetRow
	for rows.Next() {
		var tocID int
		var src model.SnippetSource
		var formatID int
		if err := rows.Scan(&tocID, &src.MinWordPos, &src.MaxWordPos, &src.Text, &formatID); err != nil {
			return nil, classify(err)
		}
		src.TocID = tocID
		src.FormatID = model.SnippetFormat(formatID)
		out = append(out, SnippetRow{Source: src})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
