// internal/store/sqlite.go
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eleventutor/backend/internal/domain/mockexam"
	"github.com/eleventutor/backend/internal/domain/practice"
	"github.com/eleventutor/backend/internal/domain/progress"
	"github.com/eleventutor/backend/internal/domain/question"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    subject TEXT NOT NULL,
    question_type TEXT NOT NULL,
    format TEXT NOT NULL DEFAULT 'multiple_choice',
    difficulty INTEGER NOT NULL DEFAULT 3,
    content TEXT NOT NULL,
    answer TEXT NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    hints TEXT NOT NULL DEFAULT '[]',
    tags TEXT NOT NULL DEFAULT '[]',
    source TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_subject_type
    ON questions(subject, question_type);

CREATE TABLE IF NOT EXISTS progress (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    subject TEXT NOT NULL,
    question_type TEXT NOT NULL,
    total_attempted INTEGER NOT NULL DEFAULT 0,
    total_correct INTEGER NOT NULL DEFAULT 0,
    current_level INTEGER NOT NULL DEFAULT 1,
    mastery_score REAL NOT NULL DEFAULT 0,
    last_practiced TEXT,
    streak INTEGER NOT NULL DEFAULT 0,
    UNIQUE (user_id, subject, question_type)
);

CREATE TABLE IF NOT EXISTS practice_sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    subject TEXT,
    question_type TEXT,
    is_timed INTEGER NOT NULL DEFAULT 0,
    time_limit_minutes INTEGER,
    question_ids TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    result TEXT
);

CREATE TABLE IF NOT EXISTS user_answers (
    session_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    user_answer TEXT NOT NULL,
    is_correct INTEGER NOT NULL,
    time_taken_seconds INTEGER NOT NULL DEFAULT 0,
    hints_used INTEGER NOT NULL DEFAULT 0,
    score REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    PRIMARY KEY (session_id, question_id),
    FOREIGN KEY (session_id) REFERENCES practice_sessions(id)
);

CREATE TABLE IF NOT EXISTS mock_exams (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    exam_number INTEGER NOT NULL,
    papers TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    answers TEXT NOT NULL DEFAULT '{}',
    answer_times TEXT NOT NULL DEFAULT '{}',
    result TEXT
);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Timestamps are stored as RFC 3339 strings so round-trips do not depend on
// driver-specific time handling.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ============================================================================
// Questions
// ============================================================================

func (s *SQLiteStore) SaveQuestion(q *question.Question) error {
	content, err := json.Marshal(q.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	answer, err := json.Marshal(q.Answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	hints, err := json.Marshal(q.Hints)
	if err != nil {
		return fmt.Errorf("marshal hints: %w", err)
	}
	tags, err := json.Marshal(q.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO questions (id, subject, question_type, format, difficulty, content, answer, explanation, hints, tags, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, string(q.Subject), string(q.QuestionType), q.Format, q.Difficulty,
		string(content), string(answer), q.Explanation, string(hints), string(tags),
		q.Source, formatTime(q.CreatedAt),
	)
	return err
}

const questionColumns = "id, subject, question_type, format, difficulty, content, answer, explanation, hints, tags, source, created_at"

func scanQuestion(row interface{ Scan(...any) error }) (*question.Question, error) {
	var q question.Question
	var subject, qtype, content, answer, hints, tags, createdAt string
	var source sql.NullString

	err := row.Scan(&q.ID, &subject, &qtype, &q.Format, &q.Difficulty,
		&content, &answer, &q.Explanation, &hints, &tags, &source, &createdAt)
	if err != nil {
		return nil, err
	}

	q.Subject = question.Subject(subject)
	q.QuestionType = question.Type(qtype)
	if err := json.Unmarshal([]byte(content), &q.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content for question %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(answer), &q.Answer); err != nil {
		return nil, fmt.Errorf("unmarshal answer for question %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(hints), &q.Hints); err != nil {
		return nil, fmt.Errorf("unmarshal hints for question %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags for question %s: %w", q.ID, err)
	}
	if source.Valid {
		q.Source = &source.String
	}
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *SQLiteStore) GetQuestion(id string) (*question.Question, error) {
	row := s.db.QueryRow("SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *SQLiteStore) GetQuestionsByIDs(ids []string) (map[string]*question.Question, error) {
	result := make(map[string]*question.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query("SELECT "+questionColumns+" FROM questions WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		result[q.ID] = q
	}
	return result, rows.Err()
}

func (s *SQLiteStore) SampleQuestions(filter SampleFilter, count int) ([]question.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE 1=1"
	var args []any

	if filter.Subject != nil {
		query += " AND subject = ?"
		args = append(args, string(*filter.Subject))
	}
	if len(filter.Types) > 0 {
		query += " AND question_type IN (" + strings.Repeat("?,", len(filter.Types)-1) + "?)"
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if filter.MinDifficulty > 0 {
		query += " AND difficulty >= ?"
		args = append(args, filter.MinDifficulty)
	}
	if filter.MaxDifficulty > 0 {
		query += " AND difficulty <= ?"
		args = append(args, filter.MaxDifficulty)
	}
	if len(filter.ExcludeIDs) > 0 {
		query += " AND id NOT IN (" + strings.Repeat("?,", len(filter.ExcludeIDs)-1) + "?)"
		for _, id := range filter.ExcludeIDs {
			args = append(args, id)
		}
	}

	query += " ORDER BY RANDOM() LIMIT ?"
	args = append(args, count)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []question.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// ============================================================================
// Progress
// ============================================================================

func (s *SQLiteStore) GetProgress(userID string, subject question.Subject, qtype question.Type) (*progress.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, subject, question_type, total_attempted, total_correct, current_level, mastery_score, last_practiced, streak
		FROM progress WHERE user_id = ? AND subject = ? AND question_type = ?`,
		userID, string(subject), string(qtype),
	)
	record, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLiteStore) ListProgress(userID string) ([]progress.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, subject, question_type, total_attempted, total_correct, current_level, mastery_score, last_practiced, streak
		FROM progress WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []progress.Record
	for rows.Next() {
		record, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SaveProgress(record *progress.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO progress (id, user_id, subject, question_type, total_attempted, total_correct, current_level, mastery_score, last_practiced, streak)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, subject, question_type) DO UPDATE SET
			total_attempted = excluded.total_attempted,
			total_correct = excluded.total_correct,
			current_level = excluded.current_level,
			mastery_score = excluded.mastery_score,
			last_practiced = excluded.last_practiced,
			streak = excluded.streak`,
		record.ID, record.UserID, string(record.Subject), string(record.QuestionType),
		record.TotalAttempted, record.TotalCorrect, record.CurrentLevel,
		record.MasteryScore, formatTimePtr(record.LastPracticed), record.Streak,
	)
	return err
}

func scanProgress(row interface{ Scan(...any) error }) (*progress.Record, error) {
	var record progress.Record
	var subject, qtype string
	var lastPracticed sql.NullString

	err := row.Scan(&record.ID, &record.UserID, &subject, &qtype,
		&record.TotalAttempted, &record.TotalCorrect, &record.CurrentLevel,
		&record.MasteryScore, &lastPracticed, &record.Streak)
	if err != nil {
		return nil, err
	}

	record.Subject = question.Subject(subject)
	record.QuestionType = question.Type(qtype)
	if record.LastPracticed, err = parseTimePtr(lastPracticed); err != nil {
		return nil, err
	}
	return &record, nil
}

// ============================================================================
// Practice sessions
// ============================================================================

func (s *SQLiteStore) SavePracticeSession(session *practice.Session) error {
	questionIDs, err := json.Marshal(session.QuestionIDs)
	if err != nil {
		return fmt.Errorf("marshal question ids: %w", err)
	}

	var subject, qtype any
	if session.Subject != nil {
		subject = string(*session.Subject)
	}
	if session.QuestionType != nil {
		qtype = string(*session.QuestionType)
	}

	_, err = s.db.Exec(`
		INSERT INTO practice_sessions (id, user_id, subject, question_type, is_timed, time_limit_minutes, question_ids, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, subject, qtype, session.IsTimed,
		session.TimeLimitMinutes, string(questionIDs),
		formatTime(session.StartedAt), formatTimePtr(session.CompletedAt),
	)
	return err
}

func (s *SQLiteStore) GetPracticeSession(id string) (*practice.Session, error) {
	var session practice.Session
	var subject, qtype, completedAt sql.NullString
	var timeLimit sql.NullInt64
	var questionIDs, startedAt string

	err := s.db.QueryRow(`
		SELECT id, user_id, subject, question_type, is_timed, time_limit_minutes, question_ids, started_at, completed_at
		FROM practice_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &subject, &qtype, &session.IsTimed,
		&timeLimit, &questionIDs, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if subject.Valid {
		v := question.Subject(subject.String)
		session.Subject = &v
	}
	if qtype.Valid {
		v := question.Type(qtype.String)
		session.QuestionType = &v
	}
	if timeLimit.Valid {
		v := int(timeLimit.Int64)
		session.TimeLimitMinutes = &v
	}
	if err := json.Unmarshal([]byte(questionIDs), &session.QuestionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal question ids for session %s: %w", id, err)
	}
	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if session.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SQLiteStore) UpsertAnswer(a *practice.Answer) error {
	_, err := s.db.Exec(`
		INSERT INTO user_answers (session_id, question_id, user_answer, is_correct, time_taken_seconds, hints_used, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, question_id) DO UPDATE SET
			user_answer = excluded.user_answer,
			is_correct = excluded.is_correct,
			time_taken_seconds = excluded.time_taken_seconds,
			hints_used = excluded.hints_used,
			score = excluded.score,
			created_at = excluded.created_at`,
		a.SessionID, a.QuestionID, a.UserAnswer, a.IsCorrect,
		a.TimeTakenSeconds, a.HintsUsed, a.Score, formatTime(a.CreatedAt),
	)
	return err
}

// SessionAnswers returns answers in first-submission order. Ordering by
// rowid keeps the sequence stable across resubmissions, which rewrite
// created_at but leave the row in place.
func (s *SQLiteStore) SessionAnswers(sessionID string) ([]practice.Answer, error) {
	rows, err := s.db.Query(`
		SELECT session_id, question_id, user_answer, is_correct, time_taken_seconds, hints_used, score, created_at
		FROM user_answers WHERE session_id = ? ORDER BY rowid`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []practice.Answer
	for rows.Next() {
		var a practice.Answer
		var createdAt string
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.UserAnswer,
			&a.IsCorrect, &a.TimeTakenSeconds, &a.HintsUsed, &a.Score, &createdAt); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQLiteStore) CompletePracticeSession(id string, completedAt time.Time, result practice.Result) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE practice_sessions SET completed_at = ?, result = ? WHERE id = ?`,
		formatTime(completedAt), string(encoded), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) PracticeResult(id string) (*practice.Result, error) {
	var encoded sql.NullString
	err := s.db.QueryRow("SELECT result FROM practice_sessions WHERE id = ?", id).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !encoded.Valid {
		return nil, ErrNotFound
	}

	var result practice.Result
	if err := json.Unmarshal([]byte(encoded.String), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result for session %s: %w", id, err)
	}
	return &result, nil
}

// ============================================================================
// Mock exams
// ============================================================================

func (s *SQLiteStore) SaveMockExam(session *mockexam.Session) error {
	papers, err := json.Marshal(session.Papers)
	if err != nil {
		return fmt.Errorf("marshal papers: %w", err)
	}
	answers, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	answerTimes, err := json.Marshal(session.AnswerTimes)
	if err != nil {
		return fmt.Errorf("marshal answer times: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO mock_exams (id, user_id, exam_number, papers, status, started_at, completed_at, answers, answer_times)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.ExamNumber, string(papers),
		string(session.Status), formatTime(session.StartedAt),
		formatTimePtr(session.CompletedAt), string(answers), string(answerTimes),
	)
	return err
}

func (s *SQLiteStore) GetMockExam(id string) (*mockexam.Session, error) {
	var session mockexam.Session
	var papers, status, startedAt, answers, answerTimes string
	var completedAt sql.NullString

	err := s.db.QueryRow(`
		SELECT id, user_id, exam_number, papers, status, started_at, completed_at, answers, answer_times
		FROM mock_exams WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &session.ExamNumber, &papers,
		&status, &startedAt, &completedAt, &answers, &answerTimes)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	session.Status = mockexam.Status(status)
	if err := json.Unmarshal([]byte(papers), &session.Papers); err != nil {
		return nil, fmt.Errorf("unmarshal papers for exam %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(answers), &session.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers for exam %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(answerTimes), &session.AnswerTimes); err != nil {
		return nil, fmt.Errorf("unmarshal answer times for exam %s: %w", id, err)
	}
	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if session.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SQLiteStore) SaveMockExamAnswers(id string, answers map[string]string, answerTimes map[string]int) error {
	encodedAnswers, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	encodedTimes, err := json.Marshal(answerTimes)
	if err != nil {
		return fmt.Errorf("marshal answer times: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE mock_exams SET answers = ?, answer_times = ? WHERE id = ?`,
		string(encodedAnswers), string(encodedTimes), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CompleteMockExam(id string, completedAt time.Time, result mockexam.Result) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE mock_exams SET status = ?, completed_at = ?, result = ? WHERE id = ?`,
		string(mockexam.StatusCompleted), formatTime(completedAt), string(encoded), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) MockExamResult(id string) (*mockexam.Result, error) {
	var encoded sql.NullString
	err := s.db.QueryRow("SELECT result FROM mock_exams WHERE id = ?", id).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !encoded.Valid {
		return nil, ErrNotFound
	}

	var result mockexam.Result
	if err := json.Unmarshal([]byte(encoded.String), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result for exam %s: %w", id, err)
	}
	return &result, nil
}
