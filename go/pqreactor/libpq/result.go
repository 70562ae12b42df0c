package libpq

/*
#include <libpq-fe.h>
*/
import "C"

// Result wraps a libpq PGresult*. Callers must call Clear exactly once,
// mirroring PQclear; ExecOp does so immediately after handing a result to
// the collector.
type Result struct {
	native *C.PGresult
}

// Status mirrors PQresultStatus, collapsed to the subset ExecOp and the
// bundled collectors need to distinguish.
func (r *Result) Status() ExecStatus {
	switch C.PQresultStatus(r.native) {
	case C.PGRES_COMMAND_OK:
		return ExecCommandOK
	case C.PGRES_TUPLES_OK:
		return ExecTuplesOK
	case C.PGRES_BAD_RESPONSE:
		return ExecBadResponse
	case C.PGRES_NONFATAL_ERROR:
		return ExecNonfatalError
	case C.PGRES_FATAL_ERROR:
		return ExecFatalError
	default:
		return ExecOther
	}
}

// ErrorMessage mirrors PQresultErrorMessage.
func (r *Result) ErrorMessage() string {
	return trimmed(C.GoString(C.PQresultErrorMessage(r.native)))
}

// CommandTag mirrors PQcmdStatus, e.g. "INSERT 0 1" or "SELECT 3".
func (r *Result) CommandTag() string {
	return C.GoString(C.PQcmdStatus(r.native))
}

// NumTuples mirrors PQntuples.
func (r *Result) NumTuples() int {
	return int(C.PQntuples(r.native))
}

// NumFields mirrors PQnfields.
func (r *Result) NumFields() int {
	return int(C.PQnfields(r.native))
}

// FieldName mirrors PQfname.
func (r *Result) FieldName(col int) string {
	return C.GoString(C.PQfname(r.native, C.int(col)))
}

// GetValue mirrors PQgetvalue; the returned string is a copy, safe to use
// after Clear.
func (r *Result) GetValue(row, col int) string {
	return C.GoString(C.PQgetvalue(r.native, C.int(row), C.int(col)))
}

// GetIsNull mirrors PQgetisnull.
func (r *Result) GetIsNull(row, col int) bool {
	return C.PQgetisnull(r.native, C.int(row), C.int(col)) == 1
}

// Clear releases the result, mirroring PQclear.
func (r *Result) Clear() {
	if r.native == nil {
		return
	}
	C.PQclear(r.native)
	r.native = nil
}
