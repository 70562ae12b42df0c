package pqreactor_test

import (
	"strings"
	"testing"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pqreactor/pqreactor/go/pqreactor"
)

func TestNewAutoPreparedQueryNamesAreUnique(t *testing.T) {
	a := pqreactor.NewAutoPreparedQuery("SELECT 1", nil)
	b := pqreactor.NewAutoPreparedQuery("SELECT 1", nil)
	assert.NotEqual(t, a.Name(), b.Name(), "two queries must never share a statement name, even with identical SQL")
}

func TestNewAutoPreparedQueryFingerprintedFoldsFingerprintIntoName(t *testing.T) {
	const query = "SELECT * FROM users WHERE id = $1"
	fingerprint, err := pgquery.Fingerprint(query)
	require.NoError(t, err)
	q := pqreactor.NewAutoPreparedQueryFingerprinted(query, nil)
	assert.True(t, strings.HasPrefix(q.Name(), "pqreactor_"))
	assert.True(t, strings.HasPrefix(q.Name(), "pqreactor_"+fingerprint+"_"))
}

func TestNewAutoPreparedQueryFingerprintedStillUniqueForSameQuery(t *testing.T) {
	a := pqreactor.NewAutoPreparedQueryFingerprinted("SELECT * FROM users WHERE id = $1", nil)
	b := pqreactor.NewAutoPreparedQueryFingerprinted("SELECT * FROM users WHERE id = $1", nil)
	assert.NotEqual(t, a.Name(), b.Name())
}

func TestConnectionTracksPreparedStatementsPerHandle(t *testing.T) {
	conn := pqreactor.NewConnection(nil)
	assert.False(t, conn.IsPrepared("stmt1"))
	conn.MarkPrepared("stmt1")
	assert.True(t, conn.IsPrepared("stmt1"))
	assert.False(t, conn.IsPrepared("stmt2"))
}
