package errorx

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPoolClosed is returned by acquisitions attempted after the pool was shut down.
	ErrPoolClosed = errors.New("connection pool is closed")

	// ErrNotInUse is returned when releasing a connection the pool does not consider in use,
	// typically a double release or a connection owned by another pool.
	ErrNotInUse = errors.New("connection is not in use by this pool")

	// ErrNestedTransaction is returned when a transaction scope is requested while one is already active.
	ErrNestedTransaction = errors.New("nested transactions are not supported")

	// ErrConnReleased is returned when a connection is used after it went back to the pool.
	ErrConnReleased = errors.New("connection has been released")
)

// CONNECTION ERROR

// ConnectionError - a session to the database could not be established or re-established.
type ConnectionError struct {
	Host     string
	Database string
	err      error
}

// NewConnectionError - ConnectionError constructor.
func NewConnectionError(err error, host, database string) *ConnectionError {
	return &ConnectionError{Host: host, Database: database, err: err}
}

func (ce *ConnectionError) Error() string {
	if ce.err != nil {
		return fmt.Sprintf("cannot connect to database %s on %s: %v", ce.Database, ce.Host, ce.err)
	}

	return fmt.Sprintf("cannot connect to database %s on %s", ce.Database, ce.Host)
}

func (ce *ConnectionError) Unwrap() error {
	return ce.err
}

// POOL EXHAUSTED

// PoolExhaustedError - no connection became available before the acquisition deadline.
type PoolExhaustedError struct {
	Capacity int
	Waited   time.Duration
	err      error
}

// NewPoolExhaustedError - PoolExhaustedError constructor. err is the deadline cause, if any.
func NewPoolExhaustedError(capacity int, waited time.Duration, err error) *PoolExhaustedError {
	return &PoolExhaustedError{Capacity: capacity, Waited: waited, err: err}
}

func (pe *PoolExhaustedError) Error() string {
	return fmt.Sprintf("connection pool exhausted: %d connections in use, waited %s", pe.Capacity, pe.Waited)
}

func (pe *PoolExhaustedError) Unwrap() error {
	return pe.err
}

// QUERY ERROR

// QueryError - a statement failed. ConnectionLost reports whether the session itself is gone.
type QueryError struct {
	Query string
	lost  bool
	err   error
}

// NewQueryError - QueryError constructor.
func NewQueryError(err error, query string, connectionLost bool) *QueryError {
	return &QueryError{Query: query, lost: connectionLost, err: err}
}

func (qe *QueryError) Error() string {
	if qe.lost {
		return fmt.Sprintf("error executing query '%s' (connection lost): %v", qe.Query, qe.err)
	}

	return fmt.Sprintf("error executing query '%s': %v", qe.Query, qe.err)
}

func (qe *QueryError) Unwrap() error {
	return qe.err
}

// ConnectionLost - true if the failure left the session unusable.
func (qe *QueryError) ConnectionLost() bool {
	return qe.lost
}

// TRANSACTION ERROR

// TxOp identifies the transaction boundary statement that failed.
type TxOp string

const (
	TxBegin    TxOp = "begin"
	TxCommit   TxOp = "commit"
	TxRollback TxOp = "rollback"
)

// TransactionError - begin, commit or rollback itself failed.
//
// When a rollback fails while handling another error, Cause holds that original error and
// errors.Is / errors.As match both of them.
type TransactionError struct {
	Op    TxOp
	Cause error
	err   error
}

// NewTransactionError - TransactionError constructor.
func NewTransactionError(op TxOp, err error) *TransactionError {
	return &TransactionError{Op: op, err: err}
}

// NewRollbackError - TransactionError for a rollback that failed while unwinding cause.
func NewRollbackError(rollbackErr, cause error) *TransactionError {
	return &TransactionError{Op: TxRollback, Cause: cause, err: rollbackErr}
}

func (te *TransactionError) Error() string {
	if te.Cause != nil {
		return fmt.Sprintf("%v (transaction %s failed: %v)", te.Cause, te.Op, te.err)
	}

	return fmt.Sprintf("transaction %s failed: %v", te.Op, te.err)
}

func (te *TransactionError) Unwrap() []error {
	if te.Cause != nil {
		return []error{te.Cause, te.err}
	}

	return []error{te.err}
}

// HELPERS

// IsConnectionError reports whether err carries a ConnectionError.
func IsConnectionError(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}

// IsPoolExhausted reports whether err carries a PoolExhaustedError.
func IsPoolExhausted(err error) bool {
	var target *PoolExhaustedError
	return errors.As(err, &target)
}

// IsQueryError reports whether err carries a QueryError.
func IsQueryError(err error) bool {
	var target *QueryError
	return errors.As(err, &target)
}

// IsTransactionError reports whether err carries a TransactionError.
func IsTransactionError(err error) bool {
	var target *TransactionError
	return errors.As(err, &target)
}

// IsConnectionLost reports whether err signals that the session is no longer usable.
func IsConnectionLost(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) && qe.ConnectionLost() {
		return true
	}

	return IsConnectionError(err)
}
