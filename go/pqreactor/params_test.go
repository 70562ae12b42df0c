package pqreactor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pqreactor/pqreactor/go/pqreactor"
)

func TestNullParams(t *testing.T) {
	var p pqreactor.NullParams
	assert.Equal(t, 0, p.Count())
	assert.Nil(t, p.OIDs())
	assert.Nil(t, p.Values())
}

func TestTextParamsBorrows(t *testing.T) {
	a, b := "alice", "bob"
	values := []*string{&a, &b}
	p := pqreactor.NewTextParams([]uint32{25, 25}, values)
	assert.Equal(t, 2, p.Count())
	assert.Equal(t, values, p.Values())

	// Mutating the caller's backing array is visible through the borrowed
	// view, since TextParams doesn't copy.
	a = "alicia"
	assert.Equal(t, "alicia", *p.Values()[0])
}

func TestOwnedTextParamsCopiesAndPreservesNulls(t *testing.T) {
	a := "alice"
	values := []*string{&a, nil}
	p := pqreactor.NewOwnedTextParams([]uint32{25, 25}, values)

	a = "mutated"
	assert.Equal(t, "alice", *p.Values()[0], "owned params must not alias the caller's string")
	assert.Nil(t, p.Values()[1], "nil entries are preserved as SQL NULL")
	assert.Equal(t, []uint32{25, 25}, p.OIDs())
}

func TestCloneParamsSeversLifetime(t *testing.T) {
	a := "alice"
	borrowed := pqreactor.NewTextParams(nil, []*string{&a})
	cloned := pqreactor.CloneParams(borrowed)

	a = "mutated"
	assert.Equal(t, "alice", *cloned.Values()[0])
}
