package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

// chunkSize bounds the rows of one multi-row insert and the ids of one IN list.
const chunkSize = 200

var pairColumns = []string{
	"id", "conversation_id", "question", "answer", "asker", "advisor",
	"question_time", "answer_time", "mode", "window_span", "context",
	"confidence", "fingerprint", "category_id", "category_confidence",
	"fallback", "keywords", "source_file", "created_at",
}

// PairStore implements driven.PairStore and driven.PostingStore.
type PairStore struct {
	store *Store
}

var (
	_ driven.PairStore    = (*PairStore)(nil)
	_ driven.PostingStore = (*PairStore)(nil)
)

// CommitPairs upserts pairs and replaces their postings in one transaction.
func (s *PairStore) CommitPairs(ctx context.Context, pairs []domain.ClassifiedPair, entries []domain.IndexEntry) error {
	if len(pairs) == 0 && len(entries) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		ids := make([]string, len(pairs))
		for i := range pairs {
			ids[i] = pairs[i].ID
		}
		for _, chunk := range chunkStrings(ids) {
			query, args, err := psql.Delete("postings").Where(sq.Eq{"pair_id": chunk}).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("clearing postings: %w", err)
			}
		}
		if err := upsertPairs(ctx, tx, pairs); err != nil {
			return err
		}
		return insertPostings(ctx, tx, entries)
	})
}

// ReplaceAll rewrites the whole knowledge base in one transaction.
func (s *PairStore) ReplaceAll(ctx context.Context, pairs []domain.ClassifiedPair, entries []domain.IndexEntry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM postings"); err != nil {
			return fmt.Errorf("clearing postings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pairs"); err != nil {
			return fmt.Errorf("clearing pairs: %w", err)
		}
		if err := upsertPairs(ctx, tx, pairs); err != nil {
			return err
		}
		return insertPostings(ctx, tx, entries)
	})
}

func (s *PairStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func upsertPairs(ctx context.Context, tx *sql.Tx, pairs []domain.ClassifiedPair) error {
	for start := 0; start < len(pairs); start += chunkSize {
		end := min(start+chunkSize, len(pairs))
		ins := psql.Insert("pairs").Columns(pairColumns...)
		for i := start; i < end; i++ {
			values, err := pairValues(&pairs[i])
			if err != nil {
				return err
			}
			ins = ins.Values(values...)
		}
		ins = ins.Suffix(`ON CONFLICT(id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			question = excluded.question,
			answer = excluded.answer,
			asker = excluded.asker,
			advisor = excluded.advisor,
			question_time = excluded.question_time,
			answer_time = excluded.answer_time,
			mode = excluded.mode,
			window_span = excluded.window_span,
			context = excluded.context,
			confidence = excluded.confidence,
			fingerprint = excluded.fingerprint,
			category_id = excluded.category_id,
			category_confidence = excluded.category_confidence,
			fallback = excluded.fallback,
			keywords = excluded.keywords,
			source_file = excluded.source_file,
			created_at = excluded.created_at`)

		query, args, err := ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("saving pairs: %w", err)
		}
	}
	return nil
}

func insertPostings(ctx context.Context, tx *sql.Tx, entries []domain.IndexEntry) error {
	for start := 0; start < len(entries); start += chunkSize {
		end := min(start+chunkSize, len(entries))
		ins := psql.Insert("postings").Columns("token", "pair_id", "field", "tf", "weight")
		for _, e := range entries[start:end] {
			ins = ins.Values(e.Token, e.PairID, string(e.Field), e.TermFrequency, e.FieldWeight)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("saving postings: %w", err)
		}
	}
	return nil
}

// GetPair retrieves a pair by ID.
func (s *PairStore) GetPair(ctx context.Context, id string) (*domain.ClassifiedPair, error) {
	query, args, err := psql.Select(pairColumns...).From("pairs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPair(s.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPairs retrieves pairs in the order of ids, skipping missing ones.
func (s *PairStore) GetPairs(ctx context.Context, ids []string) ([]domain.ClassifiedPair, error) {
	byID := make(map[string]domain.ClassifiedPair, len(ids))
	for _, chunk := range chunkStrings(ids) {
		pairs, err := s.queryPairs(ctx, psql.Select(pairColumns...).From("pairs").Where(sq.Eq{"id": chunk}))
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			byID[p.ID] = p
		}
	}

	out := make([]domain.ClassifiedPair, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPairs returns the matching pairs ordered by ID.
func (s *PairStore) ListPairs(ctx context.Context, filters domain.SearchFilters) ([]domain.ClassifiedPair, error) {
	q := psql.Select(pairColumns...).From("pairs").OrderBy("id")
	if filters.CategoryID != "" {
		q = q.Where(sq.Eq{"category_id": string(filters.CategoryID)})
	}
	if filters.Advisor != "" {
		q = q.Where(sq.Eq{"advisor": filters.Advisor})
	}
	if r := filters.DateRange; r != nil {
		if !r.From.IsZero() {
			q = q.Where(sq.GtOrEq{"question_time": toNanos(r.From)})
		}
		if !r.To.IsZero() {
			q = q.Where(sq.LtOrEq{"question_time": toNanos(r.To)})
		}
	}
	return s.queryPairs(ctx, q)
}

func (s *PairStore) queryPairs(ctx context.Context, q sq.SelectBuilder) ([]domain.ClassifiedPair, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.ClassifiedPair //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pairs: %w", err)
	}
	return pairs, nil
}

// ListMeta returns the metadata of every pair ordered by ID.
func (s *PairStore) ListMeta(ctx context.Context) ([]domain.PairMeta, error) {
	query, args, err := psql.Select("id", "category_id", "advisor", "confidence", "question_time").
		From("pairs").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pair metadata: %w", err)
	}
	defer rows.Close()

	var metas []domain.PairMeta //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.PairMeta
		var cat string
		var qt int64
		if err := rows.Scan(&m.ID, &cat, &m.Advisor, &m.Confidence, &qt); err != nil {
			return nil, fmt.Errorf("scanning pair metadata: %w", err)
		}
		m.CategoryID = domain.CategoryID(cat)
		m.QuestionTime = fromNanos(qt)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// FindByFingerprints returns the persisted pairs carrying the fingerprints.
func (s *PairStore) FindByFingerprints(ctx context.Context, fingerprints []string) (map[string]domain.FingerprintRef, error) {
	out := make(map[string]domain.FingerprintRef)
	for _, chunk := range chunkStrings(fingerprints) {
		query, args, err := psql.Select("id", "fingerprint", "confidence", "question_time").
			From("pairs").Where(sq.Eq{"fingerprint": chunk}).ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := s.store.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("querying fingerprints: %w", err)
		}
		for rows.Next() {
			var ref domain.FingerprintRef
			var qt int64
			if err := rows.Scan(&ref.PairID, &ref.Fingerprint, &ref.Confidence, &qt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning fingerprint: %w", err)
			}
			ref.QuestionTime = fromNanos(qt)
			out[ref.Fingerprint] = ref
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the number of pairs.
func (s *PairStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pairs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pairs: %w", err)
	}
	return n, nil
}

// Stats aggregates the stored pairs with SQL.
func (s *PairStore) Stats(ctx context.Context) (*domain.KnowledgeStats, error) {
	stats := &domain.KnowledgeStats{}

	query, args, err := psql.Select(
		"COUNT(*)",
		"COALESCE(AVG(confidence), 0)",
		"COALESCE(MIN(confidence), 0)",
		"COALESCE(MAX(confidence), 0)",
		"COALESCE(SUM(fallback), 0)",
	).
		Column("COALESCE(SUM(CASE WHEN confidence >= ? THEN 1 ELSE 0 END), 0)", domain.HighConfidence).
		Column("COALESCE(SUM(CASE WHEN confidence >= ? AND confidence < ? THEN 1 ELSE 0 END), 0)",
			domain.MediumConfidence, domain.HighConfidence).
		From("pairs").ToSql()
	if err != nil {
		return nil, err
	}
	err = s.store.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalPairs, &stats.AvgConfidence, &stats.MinConfidence, &stats.MaxConfidence,
		&stats.FallbackPairs, &stats.Buckets.High, &stats.Buckets.Medium)
	if err != nil {
		return nil, fmt.Errorf("aggregating pairs: %w", err)
	}
	stats.Buckets.Low = stats.TotalPairs - stats.Buckets.High - stats.Buckets.Medium

	categories := make(map[domain.CategoryID]int)
	if err := s.groupCount(ctx, psql.Select("category_id", "COUNT(*)").From("pairs").GroupBy("category_id"),
		func(key string, n int) { categories[domain.CategoryID(key)] = n }); err != nil {
		return nil, err
	}
	stats.Categories = domain.CategoryCounts(categories)

	advisors := make(map[string]int)
	advisorQuery := psql.Select("advisor", "COUNT(*) AS n").From("pairs").
		Where(sq.NotEq{"advisor": ""}).
		GroupBy("advisor").
		OrderBy("n DESC", "advisor").
		Limit(domain.TopAdvisorLimit)
	if err := s.groupCount(ctx, advisorQuery, func(key string, n int) { advisors[key] = n }); err != nil {
		return nil, err
	}
	stats.TopAdvisors = domain.RankAdvisors(advisors, domain.TopAdvisorLimit)

	return stats, nil
}

func (s *PairStore) groupCount(ctx context.Context, q sq.SelectBuilder, fn func(key string, n int)) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("grouping pairs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning group: %w", err)
		}
		fn(key, n)
	}
	return rows.Err()
}

// LoadPostings returns every posting.
func (s *PairStore) LoadPostings(ctx context.Context) ([]domain.IndexEntry, error) {
	query, args, err := psql.Select("token", "pair_id", "field", "tf", "weight").
		From("postings").OrderBy("pair_id", "token", "field").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var entries []domain.IndexEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.IndexEntry
		var field string
		if err := rows.Scan(&e.Token, &e.PairID, &field, &e.TermFrequency, &e.FieldWeight); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		e.Field = domain.IndexField(field)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Helper Functions ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func pairValues(p *domain.ClassifiedPair) ([]any, error) {
	contextJSON, err := marshalStrings(p.Context)
	if err != nil {
		return nil, fmt.Errorf("marshalling context: %w", err)
	}
	keywordsJSON, err := marshalStrings(p.Keywords)
	if err != nil {
		return nil, fmt.Errorf("marshalling keywords: %w", err)
	}
	return []any{
		p.ID, p.ConversationID, p.Question, p.Answer, p.Asker, p.Advisor,
		toNanos(p.QuestionTime), toNanos(p.AnswerTime), string(p.Mode), int64(p.WindowSpan), contextJSON,
		p.Confidence, p.Fingerprint, string(p.CategoryID), p.CategoryConfidence,
		boolToInt(p.Fallback), keywordsJSON, p.SourceFile, toNanos(p.CreatedAt),
	}, nil
}

func scanPair(row rowScanner) (*domain.ClassifiedPair, error) {
	var p domain.ClassifiedPair
	var questionTime, answerTime, windowSpan, createdAt int64
	var mode, category string
	var contextJSON, keywordsJSON sql.NullString
	var fallback int

	err := row.Scan(&p.ID, &p.ConversationID, &p.Question, &p.Answer, &p.Asker, &p.Advisor,
		&questionTime, &answerTime, &mode, &windowSpan, &contextJSON,
		&p.Confidence, &p.Fingerprint, &category, &p.CategoryConfidence,
		&fallback, &keywordsJSON, &p.SourceFile, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning pair: %w", err)
	}

	p.QuestionTime = fromNanos(questionTime)
	p.AnswerTime = fromNanos(answerTime)
	p.CreatedAt = fromNanos(createdAt)
	p.Mode = domain.ExtractionMode(mode)
	p.WindowSpan = time.Duration(windowSpan)
	p.CategoryID = domain.CategoryID(category)
	p.Fallback = fallback == 1
	if p.Context, err = unmarshalStrings(contextJSON); err != nil {
		return nil, fmt.Errorf("unmarshalling context: %w", err)
	}
	if p.Keywords, err = unmarshalStrings(keywordsJSON); err != nil {
		return nil, fmt.Errorf("unmarshalling keywords: %w", err)
	}
	return &p, nil
}

func marshalStrings(v []string) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalStrings(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// toNanos maps the zero time to 0, which UnixNano leaves undefined.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func chunkStrings(ids []string) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += chunkSize {
		chunks = append(chunks, ids[start:min(start+chunkSize, len(ids))])
	}
	return chunks
}
