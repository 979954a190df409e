package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/validation"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Timestamps are stored as unix milliseconds so that range comparisons
// and ordering are numeric.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS constituencies (
			name TEXT PRIMARY KEY,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS voters (
			id TEXT PRIMARY KEY,
			mobile TEXT NOT NULL UNIQUE,
			national_id TEXT NOT NULL UNIQUE,
			voter_code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			date_of_birth TEXT NOT NULL,
			constituency TEXT NOT NULL,
			has_voted INTEGER NOT NULL DEFAULT 0,
			voted_at INTEGER,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			party TEXT NOT NULL,
			constituency TEXT NOT NULL,
			symbol TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ballots (
			id TEXT PRIMARY KEY,
			voter_id TEXT NOT NULL UNIQUE,
			candidate_id TEXT,
			constituency TEXT NOT NULL,
			abstain INTEGER NOT NULL DEFAULT 0,
			cast_at INTEGER NOT NULL,
			FOREIGN KEY (voter_id) REFERENCES voters(id),
			FOREIGN KEY (candidate_id) REFERENCES candidates(id),
			CHECK ((candidate_id IS NULL) = (abstain = 1))
		)`,
		`CREATE TABLE IF NOT EXISTS otp_challenges (
			mobile TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			verified_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS officers (
			id TEXT PRIMARY KEY,
			employee_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			secret TEXT NOT NULL,
			constituency TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'officer'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_voters_constituency ON voters(constituency)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_constituency ON candidates(constituency)`,
		`CREATE INDEX IF NOT EXISTS idx_ballots_candidate ON ballots(candidate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ballots_cast_at ON ballots(cast_at)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Voters ====================

const voterColumns = `id, mobile, national_id, voter_code, name, date_of_birth, constituency, has_voted, voted_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (*models.Voter, error) {
	var v models.Voter
	var dob string
	var votedAt sql.NullInt64
	var createdAt int64
	if err := row.Scan(&v.ID, &v.Mobile, &v.NationalID, &v.VoterCode, &v.Name, &dob,
		&v.Constituency, &v.HasVoted, &votedAt, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := validation.ParseDate(dob)
	if err != nil {
		return nil, err
	}
	v.DateOfBirth = parsed
	if votedAt.Valid {
		t := fromMillis(votedAt.Int64)
		v.VotedAt = &t
	}
	v.CreatedAt = fromMillis(createdAt)
	return &v, nil
}

func (r *Repository) getVoterBy(ctx context.Context, column, value string) (*models.Voter, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+voterColumns+` FROM voters WHERE `+column+` = ?`, value)
	v, err := scanVoter(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVoterByID retrieves a voter by ID
func (r *Repository) GetVoterByID(ctx context.Context, id string) (*models.Voter, error) {
	return r.getVoterBy(ctx, "id", id)
}

// GetVoterByMobile retrieves a voter by mobile number
func (r *Repository) GetVoterByMobile(ctx context.Context, mobile string) (*models.Voter, error) {
	return r.getVoterBy(ctx, "mobile", mobile)
}

// GetVoterByNationalID retrieves a voter by national ID number
func (r *Repository) GetVoterByNationalID(ctx context.Context, nationalID string) (*models.Voter, error) {
	return r.getVoterBy(ctx, "national_id", nationalID)
}

// GetVoterByVoterCode retrieves a voter by voter code
func (r *Repository) GetVoterByVoterCode(ctx context.Context, voterCode string) (*models.Voter, error) {
	return r.getVoterBy(ctx, "voter_code", voterCode)
}

// CreateVoter inserts a voter. Uniqueness violations on mobile, national ID
// or voter code are reported as ErrDuplicateMobile, ErrDuplicateNationalID
// and ErrDuplicateVoterCode.
func (r *Repository) CreateVoter(ctx context.Context, v *models.Voter) error {
	var votedAt any
	if v.VotedAt != nil {
		votedAt = toMillis(*v.VotedAt)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voters (`+voterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.Mobile, v.NationalID, v.VoterCode, v.Name, v.DateOfBirth.Format(validation.DateLayout),
		v.Constituency, v.HasVoted, votedAt, toMillis(v.CreatedAt))
	if err != nil {
		return translateUnique(err)
	}
	return nil
}

// translateUnique maps SQLite unique constraint failures on the voters
// table to the repository's duplicate errors.
func translateUnique(err error) error {
	var sqliteErr sqlite3.Error
	if !stderrors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "voters.mobile"):
		return ErrDuplicateMobile
	case strings.Contains(msg, "voters.national_id"):
		return ErrDuplicateNationalID
	case strings.Contains(msg, "voters.voter_code"):
		return ErrDuplicateVoterCode
	case strings.Contains(msg, "ballots.voter_id"):
		return ErrAlreadyVoted
	}
	return err
}

// MarkVoted sets the has-voted flag. It fails with ErrAlreadyVoted when the
// flag is already set and ErrNotFound when the voter does not exist.
func (r *Repository) MarkVoted(ctx context.Context, voterID string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := markVotedTx(ctx, tx, voterID, at); err != nil {
		return err
	}
	return tx.Commit()
}

func markVotedTx(ctx context.Context, tx *sql.Tx, voterID string, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE voters SET has_voted = 1, voted_at = ?
		WHERE id = ? AND has_voted = 0
	`, toMillis(at), voterID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM voters WHERE id = ?`, voterID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyVoted
}

// ==================== Candidates ====================

const candidateColumns = `id, name, party, constituency, symbol, description`

func scanCandidates(rows *sql.Rows) ([]models.Candidate, error) {
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Party, &c.Constituency, &c.Symbol, &c.Description); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ListCandidates returns every candidate in ballot order
func (r *Repository) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+candidateColumns+` FROM candidates
		ORDER BY constituency, sort_order, id
	`)
	if err != nil {
		return nil, err
	}
	return scanCandidates(rows)
}

// ListCandidatesByConstituency returns the candidates standing in one
// constituency in ballot order. Matching is exact.
func (r *Repository) ListCandidatesByConstituency(ctx context.Context, constituency string) ([]models.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+candidateColumns+` FROM candidates
		WHERE constituency = ?
		ORDER BY sort_order, id
	`, constituency)
	if err != nil {
		return nil, err
	}
	return scanCandidates(rows)
}

// GetCandidate retrieves a candidate by ID
func (r *Repository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	var c models.Candidate
	err := r.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Party, &c.Constituency, &c.Symbol, &c.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCandidate inserts a candidate or updates the existing row with the same ID
func (r *Repository) UpsertCandidate(ctx context.Context, c models.Candidate, sortOrder int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO candidates (id, name, party, constituency, symbol, description, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			party = excluded.party,
			constituency = excluded.constituency,
			symbol = excluded.symbol,
			description = excluded.description,
			sort_order = excluded.sort_order
	`, c.ID, c.Name, c.Party, c.Constituency, c.Symbol, c.Description, sortOrder)
	return err
}

// ListConstituencies returns the configured constituency names in display order
func (r *Repository) ListConstituencies(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM constituencies ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpsertConstituency adds a constituency or updates its display order
func (r *Repository) UpsertConstituency(ctx context.Context, name string, sortOrder int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO constituencies (name, sort_order) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET sort_order = excluded.sort_order
	`, name, sortOrder)
	return err
}

// ==================== Ballots ====================

// InsertBallot records the ballot and flips the voter's flag atomically
func (r *Repository) InsertBallot(ctx context.Context, b *models.Ballot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var candidateID any
	if b.CandidateID != nil {
		candidateID = *b.CandidateID
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ballots (id, voter_id, candidate_id, constituency, abstain, cast_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(voter_id) DO NOTHING
	`, b.ID, b.VoterID, candidateID, b.Constituency, b.Abstain, toMillis(b.CastAt))
	if err != nil {
		return translateUnique(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyVoted
	}

	if err := markVotedTx(ctx, tx, b.VoterID, b.CastAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetBallotByVoter retrieves the ballot cast by a voter
func (r *Repository) GetBallotByVoter(ctx context.Context, voterID string) (*models.Ballot, error) {
	var b models.Ballot
	var candidateID sql.NullString
	var castAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, voter_id, candidate_id, constituency, abstain, cast_at
		FROM ballots WHERE voter_id = ?
	`, voterID).Scan(&b.ID, &b.VoterID, &candidateID, &b.Constituency, &b.Abstain, &castAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if candidateID.Valid {
		id := candidateID.String
		b.CandidateID = &id
	}
	b.CastAt = fromMillis(castAt)
	return &b, nil
}

// CountBallots returns the total number of ballots cast
func (r *Repository) CountBallots(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballots`).Scan(&n)
	return n, err
}

// ==================== OTP challenges ====================

// ReplaceChallenge stores ch, discarding any earlier challenge for the same mobile
func (r *Repository) ReplaceChallenge(ctx context.Context, ch models.OTPChallenge) error {
	var verifiedAt any
	if ch.VerifiedAt != nil {
		verifiedAt = toMillis(*ch.VerifiedAt)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO otp_challenges (mobile, code, expires_at, verified_at)
		VALUES (?, ?, ?, ?)
	`, ch.Mobile, ch.Code, toMillis(ch.ExpiresAt), verifiedAt)
	return err
}

// InspectChallenge loads the challenge for mobile inside a transaction,
// hands it to fn and applies the returned action before committing.
func (r *Repository) InspectChallenge(ctx context.Context, mobile string, fn OTPInspectFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ch *models.OTPChallenge
	var loaded models.OTPChallenge
	var expiresAt int64
	var verifiedAt sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT mobile, code, expires_at, verified_at FROM otp_challenges WHERE mobile = ?
	`, mobile).Scan(&loaded.Mobile, &loaded.Code, &expiresAt, &verifiedAt)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	default:
		loaded.ExpiresAt = fromMillis(expiresAt)
		if verifiedAt.Valid {
			t := fromMillis(verifiedAt.Int64)
			loaded.VerifiedAt = &t
		}
		ch = &loaded
	}

	action, fnErr := fn(ch)
	if ch != nil {
		switch action {
		case OTPDelete:
			if _, err := tx.ExecContext(ctx, `DELETE FROM otp_challenges WHERE mobile = ?`, mobile); err != nil {
				return err
			}
		case OTPSave:
			var v any
			if ch.VerifiedAt != nil {
				v = toMillis(*ch.VerifiedAt)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE otp_challenges SET code = ?, expires_at = ?, verified_at = ? WHERE mobile = ?
			`, ch.Code, toMillis(ch.ExpiresAt), v, mobile); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return fnErr
}

// PurgeChallenges deletes unverified challenges past expiry and verified
// challenges whose grace window has closed.
func (r *Repository) PurgeChallenges(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	nowMs := toMillis(now)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM otp_challenges
		WHERE (verified_at IS NULL AND expires_at < ?)
		   OR (verified_at IS NOT NULL AND verified_at + ? < ?)
	`, nowMs, grace.Milliseconds(), nowMs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Officers ====================

// GetOfficerByEmployeeID retrieves an officer by employee ID
func (r *Repository) GetOfficerByEmployeeID(ctx context.Context, employeeID string) (*models.Officer, error) {
	var o models.Officer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, employee_id, name, secret, constituency, role
		FROM officers WHERE employee_id = ?
	`, employeeID).Scan(&o.ID, &o.EmployeeID, &o.Name, &o.Secret, &o.Constituency, &o.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpsertOfficer inserts an officer or replaces the row with the same employee ID
func (r *Repository) UpsertOfficer(ctx context.Context, o models.Officer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO officers (id, employee_id, name, secret, constituency, role)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			name = excluded.name,
			secret = excluded.secret,
			constituency = excluded.constituency,
			role = excluded.role
	`, o.ID, o.EmployeeID, o.Name, o.Secret, o.Constituency, o.Role)
	return err
}

// ==================== Statistics ====================

// GetVotingStats reads every aggregate for the dashboard inside one
// transaction so the numbers are mutually consistent. Pending counts and
// the turnout percentage are left to the caller.
func (r *Repository) GetVotingStats(ctx context.Context, scope string, recentLimit int) (*models.Statistics, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	all := scope == models.AllConstituencies
	stats := &models.Statistics{
		Scope:          scope,
		Constituencies: []models.ConstituencyStats{},
		Distribution:   models.VoteDistribution{Candidates: []models.CandidateTally{}},
		RecentActivity: []models.Activity{},
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM voters WHERE ? OR constituency = ?),
			(SELECT COUNT(*) FROM ballots WHERE ? OR constituency = ?),
			(SELECT COUNT(*) FROM ballots WHERE abstain = 1 AND (? OR constituency = ?))
	`, all, scope, all, scope, all, scope).Scan(&stats.TotalRegistered, &stats.TotalVoted, &stats.Distribution.Abstentions); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT c.name,
			(SELECT COUNT(*) FROM voters v WHERE v.constituency = c.name),
			(SELECT COUNT(*) FROM ballots b WHERE b.constituency = c.name)
		FROM constituencies c
		WHERE ? OR c.name = ?
		ORDER BY c.sort_order, c.name
	`, all, scope)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var cs models.ConstituencyStats
		if err := rows.Scan(&cs.Name, &cs.Registered, &cs.Voted); err != nil {
			rows.Close()
			return nil, err
		}
		stats.Constituencies = append(stats.Constituencies, cs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT c.id, c.name, c.party, c.constituency, COUNT(b.id)
		FROM candidates c
		LEFT JOIN ballots b ON b.candidate_id = c.id
		WHERE ? OR c.constituency = ?
		GROUP BY c.id
		ORDER BY c.constituency, c.sort_order, c.id
	`, all, scope)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t models.CandidateTally
		if err := rows.Scan(&t.CandidateID, &t.Name, &t.Party, &t.Constituency, &t.Votes); err != nil {
			rows.Close()
			return nil, err
		}
		stats.Distribution.Candidates = append(stats.Distribution.Candidates, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if recentLimit > 0 {
		rows, err = tx.QueryContext(ctx, `
			SELECT b.id, COALESCE(v.name, ''), COALESCE(c.name, ''), b.constituency, b.abstain, b.cast_at
			FROM ballots b
			LEFT JOIN voters v ON v.id = b.voter_id
			LEFT JOIN candidates c ON c.id = b.candidate_id
			WHERE ? OR b.constituency = ?
			ORDER BY b.cast_at DESC, b.rowid DESC
			LIMIT ?
		`, all, scope, recentLimit)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var a models.Activity
			var castAt int64
			if err := rows.Scan(&a.BallotID, &a.VoterName, &a.CandidateName, &a.Constituency, &a.Abstain, &castAt); err != nil {
				rows.Close()
				return nil, err
			}
			a.CastAt = fromMillis(castAt)
			stats.RecentActivity = append(stats.RecentActivity, a)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}
