package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	sqliteStoreName = "sqlite"
	// Fixed-width so that text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	member_code       TEXT NOT NULL DEFAULT '',
	full_name         TEXT NOT NULL,
	email             TEXT NOT NULL DEFAULT '',
	phone             TEXT NOT NULL DEFAULT '',
	date_of_birth     TEXT NOT NULL,
	zodiac_sign       TEXT NOT NULL,
	zodiac_element    TEXT NOT NULL,
	position          TEXT NOT NULL DEFAULT '',
	department        TEXT NOT NULL DEFAULT '',
	join_date         TEXT NOT NULL DEFAULT '',
	membership_status TEXT NOT NULL,
	membership_type   TEXT NOT NULL,
	city              TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]',
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	deleted           INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_members_code ON members(member_code);
CREATE INDEX IF NOT EXISTS idx_members_sign ON members(zodiac_sign) WHERE deleted = 0;
CREATE INDEX IF NOT EXISTS idx_members_email ON members(lower(email)) WHERE deleted = 0;

CREATE TABLE IF NOT EXISTS notes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	note_type     TEXT NOT NULL,
	member_id     INTEGER,
	team_id       INTEGER,
	department_id INTEGER,
	title         TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL,
	tags          TEXT NOT NULL DEFAULT '[]',
	is_important  INTEGER NOT NULL DEFAULT 0,
	created_by    INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_member ON notes(member_id);

CREATE TABLE IF NOT EXISTS settings (
	setting_key TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

const memberColumns = `id, member_code, full_name, email, phone, date_of_birth, zodiac_sign, zodiac_element,
	position, department, join_date, membership_status, membership_type, city, notes, tags,
	created_at, updated_at, deleted`

// SQLiteStore persists members in a single SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dsn := path
	if path != ":memory:" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = abs + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}

	s := &SQLiteStore{db: db, opts: o}
	if n, err := s.Count(ctx); err == nil {
		metrics.UpdateMembersTotal(n)
	}
	o.logger.Info(ctx, "sqlite store ready", logger.String("path", path))
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(r rowScanner) (model.Member, error) {
	var (
		m                model.Member
		sign, element    string
		status, typ      string
		tags             string
		created, updated string
		deleted          int
	)
	err := r.Scan(&m.ID, &m.MemberCode, &m.FullName, &m.Email, &m.Phone, &m.DateOfBirth, &sign, &element,
		&m.Position, &m.Department, &m.JoinDate, &status, &typ, &m.City, &m.Notes, &tags,
		&created, &updated, &deleted)
	if err != nil {
		return model.Member{}, err
	}
	m.ZodiacSign = zodiac.Sign(sign)
	m.ZodiacElement = zodiac.Element(element)
	m.MembershipStatus = model.MembershipStatus(status)
	m.MembershipType = model.MembershipType(typ)
	m.Deleted = deleted != 0
	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
			return model.Member{}, fmt.Errorf("decode tags of member %d: %w", m.ID, err)
		}
	}
	if m.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return model.Member{}, fmt.Errorf("decode created_at of member %d: %w", m.ID, err)
	}
	if m.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return model.Member{}, fmt.Errorf("decode updated_at of member %d: %w", m.ID, err)
	}
	return m, nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func (s *SQLiteStore) emailTaken(ctx context.Context, tx *sql.Tx, email string, except int64) (bool, error) {
	if email == "" {
		return false, nil
	}
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE deleted = 0 AND id <> ? AND lower(email) = lower(?)`,
		except, email).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) Create(ctx context.Context, m model.Member) (model.Member, error) {
	defer observe(sqliteStoreName, "create", time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Member{}, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	taken, err := s.emailTaken(ctx, tx, m.Email, 0)
	if err != nil {
		return model.Member{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		metrics.RecordErrorByComponent("repository", "conflict")
		return model.Member{}, ErrConflict
	}

	now := s.opts.now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.Deleted = false
	res, err := tx.ExecContext(ctx, `INSERT INTO members
		(full_name, email, phone, date_of_birth, zodiac_sign, zodiac_element, position, department, join_date,
		 membership_status, membership_type, city, notes, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FullName, m.Email, m.Phone, m.DateOfBirth, string(m.ZodiacSign), string(m.ZodiacElement),
		m.Position, m.Department, m.JoinDate, string(m.MembershipStatus), string(m.MembershipType),
		m.City, m.Notes, encodeTags(m.Tags), now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return model.Member{}, fmt.Errorf("insert member: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return model.Member{}, fmt.Errorf("insert member: %w", err)
	}
	m.MemberCode = model.CodeFor(m.ID)
	if _, err := tx.ExecContext(ctx, `UPDATE members SET member_code = ? WHERE id = ?`, m.MemberCode, m.ID); err != nil {
		return model.Member{}, fmt.Errorf("assign member code: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Member{}, fmt.Errorf("commit create: %w", err)
	}
	s.refreshTotal(ctx)
	return m, nil
}

func (s *SQLiteStore) getWhere(ctx context.Context, where string, arg any) (model.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE deleted = 0 AND `+where, arg)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	if err != nil {
		return model.Member{}, fmt.Errorf("load member: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Member, error) {
	defer observe(sqliteStoreName, "get", time.Now())
	return s.getWhere(ctx, `id = ?`, id)
}

func (s *SQLiteStore) GetByCode(ctx context.Context, code string) (model.Member, error) {
	defer observe(sqliteStoreName, "get_by_code", time.Now())
	return s.getWhere(ctx, `member_code = ?`, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *SQLiteStore) Update(ctx context.Context, m model.Member) (model.Member, error) {
	defer observe(sqliteStoreName, "update", time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Member{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanMember(tx.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE deleted = 0 AND id = ?`, m.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	if err != nil {
		return model.Member{}, fmt.Errorf("load member: %w", err)
	}
	taken, err := s.emailTaken(ctx, tx, m.Email, m.ID)
	if err != nil {
		return model.Member{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return model.Member{}, ErrConflict
	}

	m.MemberCode = cur.MemberCode
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = s.opts.now().UTC()
	m.Deleted = false
	_, err = tx.ExecContext(ctx, `UPDATE members SET
		full_name = ?, email = ?, phone = ?, date_of_birth = ?, zodiac_sign = ?, zodiac_element = ?,
		position = ?, department = ?, join_date = ?, membership_status = ?, membership_type = ?,
		city = ?, notes = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		m.FullName, m.Email, m.Phone, m.DateOfBirth, string(m.ZodiacSign), string(m.ZodiacElement),
		m.Position, m.Department, m.JoinDate, string(m.MembershipStatus), string(m.MembershipType),
		m.City, m.Notes, encodeTags(m.Tags), m.UpdatedAt.Format(timeLayout), m.ID)
	if err != nil {
		return model.Member{}, fmt.Errorf("update member %d: %w", m.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Member{}, fmt.Errorf("commit update: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) SoftDelete(ctx context.Context, id int64) error {
	defer observe(sqliteStoreName, "soft_delete", time.Now())
	res, err := s.db.ExecContext(ctx, `UPDATE members SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		s.opts.now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("soft delete member %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.refreshTotal(ctx)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	defer observe(sqliteStoreName, "delete", time.Now())
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.refreshTotal(ctx)
	return nil
}

var sortColumns = map[model.SortField]string{
	model.SortFullName:    "lower(full_name)",
	model.SortCreatedAt:   "created_at",
	model.SortJoinDate:    "join_date",
	model.SortDateOfBirth: "date_of_birth",
}

func (s *SQLiteStore) Search(ctx context.Context, q model.SearchQuery) (model.Page[model.Member], error) {
	defer observe(sqliteStoreName, "search", time.Now())
	q, err := q.Normalize()
	if err != nil {
		return model.Page[model.Member]{}, err
	}

	where := []string{"deleted = 0"}
	var args []any
	if q.Keyword != "" {
		where = append(where, "(instr(lower(full_name), ?) > 0 OR instr(lower(email), ?) > 0 OR instr(lower(member_code), ?) > 0)")
		kw := strings.ToLower(q.Keyword)
		args = append(args, kw, kw, kw)
	}
	add := func(cond string, v string) {
		if v != "" {
			where = append(where, cond)
			args = append(args, v)
		}
	}
	add("zodiac_sign = ?", string(q.Sign))
	add("zodiac_element = ?", string(q.Element))
	add("membership_status = ?", string(q.Status))
	add("membership_type = ?", string(q.Type))
	add("lower(department) = lower(?)", q.Department)
	clause := strings.Join(where, " AND ")

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE `+clause, args...).Scan(&total); err != nil {
		return model.Page[model.Member]{}, fmt.Errorf("count members: %w", err)
	}

	order := fmt.Sprintf("%s %s, id ASC", sortColumns[q.SortBy], q.Direction)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE `+clause+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, q.Size, q.Page*q.Size)...)
	if err != nil {
		return model.Page[model.Member]{}, fmt.Errorf("search members: %w", err)
	}
	content, err := collect(rows)
	if err != nil {
		return model.Page[model.Member]{}, err
	}
	return model.NewPage(content, q.Page, q.Size, total), nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]model.Member, error) {
	defer observe(sqliteStoreName, "all", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members WHERE deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]model.Member, error) {
	defer rows.Close()
	out := []model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE deleted = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

const noteColumns = `id, note_type, member_id, team_id, department_id, title, content, tags,
	is_important, created_by, created_at, updated_at`

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func scanNote(r rowScanner) (model.Note, error) {
	var (
		n                        model.Note
		typ, tags                string
		member, team, department sql.NullInt64
		important                int
		created, updated         string
	)
	err := r.Scan(&n.ID, &typ, &member, &team, &department, &n.Title, &n.Content, &tags,
		&important, &n.CreatedBy, &created, &updated)
	if err != nil {
		return model.Note{}, err
	}
	n.NoteType = model.NoteType(typ)
	n.MemberID, n.TeamID, n.DepartmentID = idPtr(member), idPtr(team), idPtr(department)
	n.IsImportant = important != 0
	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			return model.Note{}, fmt.Errorf("decode tags of note %d: %w", n.ID, err)
		}
	}
	if n.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return model.Note{}, fmt.Errorf("decode created_at of note %d: %w", n.ID, err)
	}
	if n.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return model.Note{}, fmt.Errorf("decode updated_at of note %d: %w", n.ID, err)
	}
	return n, nil
}

func (s *SQLiteStore) CreateNote(ctx context.Context, n model.Note) (model.Note, error) {
	defer observe(sqliteStoreName, "create_note", time.Now())
	now := s.opts.now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	important := 0
	if n.IsImportant {
		important = 1
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO notes
		(note_type, member_id, team_id, department_id, title, content, tags, is_important, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(n.NoteType), nullID(n.MemberID), nullID(n.TeamID), nullID(n.DepartmentID),
		n.Title, n.Content, encodeTags(n.Tags), important, n.CreatedBy,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Notes(ctx context.Context, f model.NoteFilter) ([]model.Note, error) {
	defer observe(sqliteStoreName, "notes", time.Now())
	where := []string{"1 = 1"}
	var args []any
	if f.NoteType != "" {
		where = append(where, "note_type = ?")
		args = append(args, string(f.NoteType))
	}
	if f.MemberID != 0 {
		where = append(where, "member_id = ?")
		args = append(args, f.MemberID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at DESC, id DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	out := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Settings(ctx context.Context) ([]model.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT setting_key, value, updated_at FROM settings ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	out := []model.Setting{}
	for rows.Next() {
		var (
			st      model.Setting
			updated string
		)
		if err := rows.Scan(&st.Key, &st.Value, &updated); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		if st.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("decode updated_at of setting %q: %w", st.Key, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) (model.Setting, error) {
	defer observe(sqliteStoreName, "put_setting", time.Now())
	st := model.Setting{Key: key, Value: value, UpdatedAt: s.opts.now().UTC()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (setting_key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		st.Key, st.Value, st.UpdatedAt.Format(timeLayout))
	if err != nil {
		return model.Setting{}, fmt.Errorf("put setting %q: %w", key, err)
	}
	return st, nil
}

func (s *SQLiteStore) refreshTotal(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		s.opts.logger.Warn(ctx, "member count refresh failed", logger.Error(err))
		return
	}
	metrics.UpdateMembersTotal(n)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
