// Package repository provides Postgres persistence for Attire.
//
// Repositories take *sql.DB (pgx stdlib driver) and return domain types.
// Not-found conditions surface as sql.ErrNoRows; services translate them
// into domain errors.
package repository

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sqlc-dev/pqtype"
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// marshalStrings encodes a string slice as a jsonb column value.
// Nil slices encode as an empty array, never SQL NULL.
func marshalStrings(s []string) (pqtype.NullRawMessage, error) {
	if s == nil {
		s = []string{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// unmarshalStrings decodes a jsonb column into a string slice.
func unmarshalStrings(raw pqtype.NullRawMessage) ([]string, error) {
	if !raw.Valid || len(raw.RawMessage) == 0 {
		return []string{}, nil
	}
	var s []string
	if err := json.Unmarshal(raw.RawMessage, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// marshalUUIDs encodes a UUID slice as a jsonb column value.
func marshalUUIDs(ids []uuid.UUID) (pqtype.NullRawMessage, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// unmarshalUUIDs decodes a jsonb column into a UUID slice.
func unmarshalUUIDs(raw pqtype.NullRawMessage) ([]uuid.UUID, error) {
	if !raw.Valid || len(raw.RawMessage) == 0 {
		return []uuid.UUID{}, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw.RawMessage, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
