package repository

import (
	"database/sql"
	"errors"
	"strings"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation on constraint
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
	}
	return false
}

// photoColumns holds the nullable photo columns shared by users and products
type photoColumns struct {
	key         sql.NullString
	contentType sql.NullString
	size        sql.NullInt64
}

func (p *photoColumns) targets() []interface{} {
	return []interface{}{&p.key, &p.contentType, &p.size}
}

func (p *photoColumns) ref() *domain.PhotoRef {
	if !p.key.Valid || p.key.String == "" {
		return nil
	}
	return &domain.PhotoRef{
		Key:         p.key.String,
		ContentType: p.contentType.String,
		Size:        p.size.Int64,
	}
}

func photoArgs(ref *domain.PhotoRef) (key, contentType sql.NullString, size sql.NullInt64) {
	if ref == nil {
		return
	}
	return sql.NullString{String: ref.Key, Valid: true},
		sql.NullString{String: ref.ContentType, Valid: true},
		sql.NullInt64{Int64: ref.Size, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching keyword as a literal substring
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}
