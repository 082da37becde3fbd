package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"brushup/internal/errors"
	"brushup/internal/record"
)

// Put inserts or replaces a record by id.
func Put(db *sql.DB, r *record.Record) error {
	var attachmentsJSON sql.NullString
	if len(r.Attachments) > 0 {
		data, err := json.Marshal(r.Attachments)
		if err != nil {
			return errors.NewInternal(err)
		}
		attachmentsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO images (
			id, prompt, provider, mode, state,
			attachments_json, result_image, failure_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		r.ID, r.Prompt, string(r.Provider), string(r.Mode), string(r.State),
		attachmentsJSON, toNullString(r.ResultImage), toNullString(r.FailureMessage),
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetByID retrieves a record by id.
func GetByID(db *sql.DB, id string) (*record.Record, error) {
	row := db.QueryRow(selectCols+" FROM images WHERE id = ?", id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetAll returns every record sorted by creation time descending. Records
// created in the same instant fall back to id order, which for ULIDs is
// also chronological.
func GetAll(db *sql.DB) ([]*record.Record, error) {
	rows, err := db.Query(selectCols + " FROM images ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return records, nil
}

// UpdateResult writes a record's settlement: its terminal state plus result
// image or failure message. The statement is an UPDATE, so settling an id the
// user has already deleted touches zero rows and never re-creates the record.
// Returns true if a row was updated.
func UpdateResult(db *sql.DB, id string, state record.State, resultImage, failureMessage string) (bool, error) {
	query := `
		UPDATE images
		SET state = ?, result_image = ?, failure_message = ?
		WHERE id = ?
	`

	result, err := db.Exec(query,
		string(state), toNullString(resultImage), toNullString(failureMessage), id,
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}

	return rowsAffected > 0, nil
}

// Delete removes a record and its index entry. Deleting an absent id is a
// no-op, not an error.
func Delete(db *sql.DB, id string) error {
	if _, err := db.Exec("DELETE FROM images WHERE id = ?", id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Clear removes all records.
func Clear(db *sql.DB) error {
	if _, err := db.Exec("DELETE FROM images"); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Count returns the number of stored records.
func Count(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM images").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

const selectCols = `
	SELECT id, prompt, provider, mode, state,
		attachments_json, result_image, failure_message, created_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a Record struct.
func scanRecord(row scanner) (*record.Record, error) {
	var (
		r               record.Record
		provider        string
		mode            string
		state           string
		attachmentsJSON sql.NullString
		resultImage     sql.NullString
		failureMessage  sql.NullString
		createdAt       int64
	)

	err := row.Scan(
		&r.ID, &r.Prompt, &provider, &mode, &state,
		&attachmentsJSON, &resultImage, &failureMessage, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	r.Provider = record.Provider(provider)
	r.Mode = record.Mode(mode)
	r.State = record.State(state)
	r.ResultImage = fromNullString(resultImage)
	r.FailureMessage = fromNullString(failureMessage)
	r.CreatedAt = time.Unix(0, createdAt)

	if attachmentsJSON.Valid && attachmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(attachmentsJSON.String), &r.Attachments); err != nil {
			return nil, err
		}
	}

	return &r, nil
}

// toNullString converts a string to sql.NullString, treating "" as NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// fromNullString converts a sql.NullString to a string.
func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
