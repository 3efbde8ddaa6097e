package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

const questionColumns = `id, text, options, correct_option_index, category, difficulty, explanation, image_url, created_at`

// QuestionStore keeps the question bank in Postgres.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) FindAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	return collectQuestions(rows)
}

func (s *QuestionStore) FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query questions by id: %w", err)
	}
	return collectQuestions(rows)
}

func (s *QuestionStore) List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM questions%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		questionColumns, where, len(args)-1, len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}
	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		questionArgs(q)...)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) error {
	tag, err := s.pool.Exec(ctx, `UPDATE questions
		SET text = $2, options = $3, correct_option_index = $4, category = $5,
		    difficulty = $6, explanation = $7, image_url = $8
		WHERE id = $1`,
		questionArgs(q)[:8]...)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// InsertMissing adds questions whose id is not stored yet and reports how many were inserted.
func (s *QuestionStore) InsertMissing(ctx context.Context, questions []domain.Question) (int, error) {
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(`INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`, questionArgs(q)...)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range questions {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("seed questions: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func questionArgs(q domain.Question) []interface{} {
	return []interface{}{
		q.ID, q.Text, q.Options, q.CorrectOptionIndex, string(q.Category),
		string(q.Difficulty), q.Explanation, q.ImageURL, q.CreatedAt,
	}
}

// filterClause renders the WHERE part of an admin listing with positional args.
func filterClause(filter domain.QuestionFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Difficulty != "" {
		args = append(args, string(filter.Difficulty))
		conds = append(conds, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf("(text ILIKE $%[1]d OR explanation ILIKE $%[1]d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func collectQuestions(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q                    domain.Question
		category, difficulty string
	)
	if err := row.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectOptionIndex, &category, &difficulty,
		&q.Explanation, &q.ImageURL, &q.CreatedAt); err != nil {
		return domain.Question{}, err
	}
	q.Category = domain.Category(category)
	q.Difficulty = domain.Difficulty(difficulty)
	return q, nil
}
