package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnostic is the structured view of a failure that goes into server logs
// when a request ends in a 5xx. It never reaches the client.
type Diagnostic struct {
	Message   string   `json:"message"`
	Code      Code     `json:"code,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	Causes    []string `json:"causes,omitempty"`

	Postgres *PostgresDetail `json:"postgres,omitempty"`
}

// PostgresDetail carries the server-side fields of a database error, whichever
// driver produced it.
type PostgresDetail struct {
	SQLState   string `json:"sqlstate"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Dump walks the wrap chain of err.
func Dump(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}

	diag := Diagnostic{Message: err.Error()}
	if typed := As(err); typed != nil {
		diag.Code = typed.Code()
		diag.Retryable = MetadataFor(typed.Code()).Retryable
	}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		diag.Causes = append(diag.Causes, fmt.Sprintf("%T: %v", cause, cause))
	}
	diag.Postgres = postgresDetail(err)
	return diag
}

func postgresDetail(err error) *PostgresDetail {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &PostgresDetail{
			SQLState:   pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Table:      pgErr.TableName,
			Column:     pgErr.ColumnName,
			Detail:     pgErr.Detail,
			Message:    pgErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PostgresDetail{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
