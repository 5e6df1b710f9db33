package audit

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/peko-thunder/japanese-name-validator/namecheck"
)

// Entry is one recorded validation call.
type Entry struct {
	ID        string
	KanjiSei  string
	KanjiMei  string
	RomajiSei string
	RomajiMei string
	ClientID  string
	Result    namecheck.ValidationResult
	CreatedAt time.Time
}

// Logger writes validation calls to the audit database. A Logger with
// a nil DB is valid and silently drops every record; api.New uses one
// when the server is started with an empty audit database path.
type Logger struct {
	DB *sql.DB
}

// NewLogger wraps db. db may be nil.
func NewLogger(db *sql.DB) *Logger {
	return &Logger{DB: db}
}

func generateEntryID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Record writes one validation call to the log. clientID identifies the
// caller (the remote address of the HTTP/WS request) and is
// stored for compliance review, never used in the validation decision.
// Failure to write is logged but never propagated: the audit trail is
// best-effort and must not affect the validation response itself.
func (l *Logger) Record(kanjiSei, kanjiMei, romajiSei, romajiMei, clientID string, result namecheck.ValidationResult) {
	if l == nil || l.DB == nil {
		return
	}

	id := generateEntryID()
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		slog.Warn("marshal audit warnings", "error", err)
		return
	}

	_, err = l.DB.Exec(
		`INSERT INTO validation_log
			(id, kanji_sei, kanji_mei, romaji_sei, romaji_mei, is_valid, sei_status, mei_status, warnings_json, client_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, kanjiSei, kanjiMei, romajiSei, romajiMei,
		result.IsValid, string(result.SeiCheck.Status), string(result.MeiCheck.Status),
		string(warningsJSON), clientID, time.Now().UTC(),
	)
	if err != nil {
		slog.Warn("write audit log entry", "error", err)
	}
}

// Recent returns the most recently recorded entries, newest first, up
// to limit rows.
func (l *Logger) Recent(limit int) ([]Entry, error) {
	if l == nil || l.DB == nil {
		return nil, nil
	}
	rows, err := l.DB.Query(
		`SELECT id, kanji_sei, kanji_mei, romaji_sei, romaji_mei, is_valid, sei_status, mei_status, warnings_json, client_id, created_at
		 FROM validation_log ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			isValid              bool
			seiStatus, meiStatus string
			warningsJSON         string
		)
		if err := rows.Scan(&e.ID, &e.KanjiSei, &e.KanjiMei, &e.RomajiSei, &e.RomajiMei,
			&isValid, &seiStatus, &meiStatus, &warningsJSON, &e.ClientID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Result.IsValid = isValid
		e.Result.SeiCheck.Status = namecheck.CheckStatus(seiStatus)
		e.Result.MeiCheck.Status = namecheck.CheckStatus(meiStatus)
		json.Unmarshal([]byte(warningsJSON), &e.Result.Warnings)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
