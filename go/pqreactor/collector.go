package pqreactor

import (
	pqerrors "github.com/pqreactor/pqreactor/go/pqreactor/errors"
	"github.com/pqreactor/pqreactor/go/pqreactor/libpq"
)

// Collector receives every *libpq.Result a command produces, in order, one
// call per PQgetResult step, followed by exactly one final call with a nil
// Result once PQgetResult reports no more results are coming. A
// multi-statement query (e.g. issued via SendQuery with several
// ';'-separated statements) delivers more than one non-nil result before
// that terminating call. Result ownership stays with ExecOp, which clears
// each non-nil result immediately after the Collector returns; a Collector
// that needs the data afterward must copy it out.
//
// If OnResult returns a non-nil error, ExecOp keeps consuming the remaining
// results (libpq requires draining a command fully before the connection is
// reusable) but reports the last non-nil error as the operation's outcome.
type Collector interface {
	OnResult(res *libpq.Result) error
}

// CollectorFunc adapts a plain function to the Collector interface.
type CollectorFunc func(res *libpq.Result) error

func (f CollectorFunc) OnResult(res *libpq.Result) error { return f(res) }

// IgnoreResult discards every result, checking only that its status is not
// an error status. It is the default for commands whose caller only cares
// whether the command succeeded (INSERT/UPDATE/DELETE without RETURNING).
var IgnoreResult Collector = CollectorFunc(func(res *libpq.Result) error {
	return statusError(res)
})

// DumpResult formats every row of every result into dest as
// "col1=val1 col2=val2 ..." lines, primarily for diagnostics and tests. NULL
// values render as "<nil>".
func DumpResult(dest *[]string) Collector {
	return CollectorFunc(func(res *libpq.Result) error {
		if err := statusError(res); err != nil {
			return err
		}
		if res == nil {
			return nil
		}
		nfields := res.NumFields()
		for row := 0; row < res.NumTuples(); row++ {
			line := ""
			for col := 0; col < nfields; col++ {
				if col > 0 {
					line += " "
				}
				line += res.FieldName(col) + "="
				if res.GetIsNull(row, col) {
					line += "<nil>"
				} else {
					line += res.GetValue(row, col)
				}
			}
			*dest = append(*dest, line)
		}
		return nil
	})
}

// CollectStrings appends each row's column values, in field order, as
// []string to *dest. A NULL column becomes a nil pointer's zero value: the
// empty string, indistinguishable from an actual empty text value in this
// representation; callers that must distinguish NULL from "" should write a
// Collector against *libpq.Result directly.
func CollectStrings(dest *[][]string) Collector {
	return CollectorFunc(func(res *libpq.Result) error {
		if err := statusError(res); err != nil {
			return err
		}
		if res == nil {
			return nil
		}
		nfields := res.NumFields()
		for row := 0; row < res.NumTuples(); row++ {
			values := make([]string, nfields)
			for col := 0; col < nfields; col++ {
				if !res.GetIsNull(row, col) {
					values[col] = res.GetValue(row, col)
				}
			}
			*dest = append(*dest, values)
		}
		return nil
	})
}

// statusError reports whether res carries an error status. A nil res (the
// terminating call OnResult receives after the last real result) is never
// an error.
func statusError(res *libpq.Result) error {
	if res == nil {
		return nil
	}
	switch res.Status() {
	case libpq.ExecFatalError:
		return pqerrors.New(pqerrors.ResultFatalError, errorsNew(res.ErrorMessage()))
	case libpq.ExecBadResponse:
		return pqerrors.New(pqerrors.ResultBadResponse, errorsNew(res.ErrorMessage()))
	default:
		return nil
	}
}
