package pqreactor

// Params supplies the positional parameters for SendQueryParams and
// SendQueryPrepared: their count, PostgreSQL OIDs (0 lets the server infer
// the type), and text values (a nil entry encodes SQL NULL). Implementations
// differ only in whether they own or borrow the underlying value strings.
type Params interface {
	Count() int
	OIDs() []uint32
	Values() []*string
}

// NullParams is the zero-parameter Params, used for queries with no
// placeholders.
type NullParams struct{}

func (NullParams) Count() int        { return 0 }
func (NullParams) OIDs() []uint32    { return nil }
func (NullParams) Values() []*string { return nil }

// TextParams borrows a caller-owned slice of parameter values without
// copying. The caller must keep the backing slice (and the strings it
// points at) alive until the operation using it completes; the exec ops read
// Params when they build the libpq call, which for an op queued by
// ConnectionPool.Submit, or retried by Checked, happens after Submit has
// returned.
type TextParams struct {
	oids   []uint32
	values []*string
}

// NewTextParams builds a TextParams borrowing values and, optionally, oids.
// A nil oids is treated as "infer every type"; if non-nil it must be the
// same length as values.
func NewTextParams(oids []uint32, values []*string) TextParams {
	return TextParams{oids: oids, values: values}
}

func (p TextParams) Count() int        { return len(p.values) }
func (p TextParams) OIDs() []uint32    { return p.oids }
func (p TextParams) Values() []*string { return p.values }

// OwnedTextParams holds its own copies of every parameter value, safe to
// keep and reuse across many operations regardless of what the caller does
// with its original slice afterward.
type OwnedTextParams struct {
	oids   []uint32
	values []*string
}

// NewOwnedTextParams copies values (and oids, if non-nil) into a new
// OwnedTextParams. A nil entry in values is preserved as SQL NULL.
func NewOwnedTextParams(oids []uint32, values []*string) OwnedTextParams {
	ownedValues := make([]*string, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		copied := *v
		ownedValues[i] = &copied
	}
	var ownedOIDs []uint32
	if oids != nil {
		ownedOIDs = append([]uint32(nil), oids...)
	}
	return OwnedTextParams{oids: ownedOIDs, values: ownedValues}
}

func (p OwnedTextParams) Count() int        { return len(p.values) }
func (p OwnedTextParams) OIDs() []uint32    { return p.oids }
func (p OwnedTextParams) Values() []*string { return p.values }

// CloneParams copies any Params implementation into an OwnedTextParams,
// severing any lifetime dependency on the source's backing storage. Used by
// AutoPreparedQuery, which may re-execute a prepared statement with
// caller-supplied Params well after the call that submitted it returns.
func CloneParams(p Params) OwnedTextParams {
	return NewOwnedTextParams(p.OIDs(), p.Values())
}
