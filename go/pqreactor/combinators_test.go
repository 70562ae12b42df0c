package pqreactor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pqreactor/pqreactor/go/pqreactor"
)

func recordingOp(err error, calls *[]string, name string) pqreactor.Op {
	return func(_ *pqreactor.Connection, done pqreactor.Completion) {
		*calls = append(*calls, name)
		done(err)
	}
}

func TestSeqRunsSecondOnlyOnSuccess(t *testing.T) {
	var calls []string
	op := pqreactor.Seq(recordingOp(nil, &calls, "first"), recordingOp(nil, &calls, "second"))

	var gotErr error
	op(nil, func(err error) { gotErr = err })

	assert.NoError(t, gotErr)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestSeqShortCircuitsOnFirstError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	op := pqreactor.Seq(recordingOp(boom, &calls, "first"), recordingOp(nil, &calls, "second"))

	var gotErr error
	op(nil, func(err error) { gotErr = err })

	assert.Equal(t, boom, gotErr)
	assert.Equal(t, []string{"first"}, calls)
}

func TestOnErrorRunsRecoverOnlyOnFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	op := pqreactor.OnError(recordingOp(boom, &calls, "op"), recordingOp(nil, &calls, "recover"))

	var gotErr error
	op(nil, func(err error) { gotErr = err })

	assert.NoError(t, gotErr)
	assert.Equal(t, []string{"op", "recover"}, calls)
}

func TestOnErrorSkipsRecoverOnSuccess(t *testing.T) {
	var calls []string
	op := pqreactor.OnError(recordingOp(nil, &calls, "op"), recordingOp(nil, &calls, "recover"))

	op(nil, func(error) {})

	assert.Equal(t, []string{"op"}, calls)
}

func TestOnOkRunsThenOnlyOnSuccess(t *testing.T) {
	var calls []string
	op := pqreactor.OnOk(recordingOp(nil, &calls, "op"), recordingOp(nil, &calls, "then"))

	op(nil, func(error) {})

	assert.Equal(t, []string{"op", "then"}, calls)
}

func TestOnOkSkipsThenOnFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	op := pqreactor.OnOk(recordingOp(boom, &calls, "op"), recordingOp(nil, &calls, "then"))

	var gotErr error
	op(nil, func(err error) { gotErr = err })

	assert.Equal(t, boom, gotErr)
	assert.Equal(t, []string{"op"}, calls)
}

func TestCheckedRetriesOnceAfterReconnect(t *testing.T) {
	var calls []string
	attempt := 0
	op := pqreactor.Op(func(_ *pqreactor.Connection, done pqreactor.Completion) {
		attempt++
		calls = append(calls, "op")
		if attempt == 1 {
			done(errors.New("first attempt fails"))
			return
		}
		done(nil)
	})
	connect := recordingOp(nil, &calls, "connect")

	// Checked only skips reconnecting when the connection reports itself
	// still OK; a bare NewConnection has no libpq handle at all, so
	// IsConnected is false here and the reconnect path is taken, same as a
	// dropped connection would.
	conn := pqreactor.NewConnection(nil)

	var gotErr error
	pqreactor.Checked(op, connect)(conn, func(err error) { gotErr = err })

	assert.NoError(t, gotErr)
	assert.Equal(t, []string{"op", "connect", "op"}, calls)
}

func TestCheckedReportsConnectErrorWhenReconnectFails(t *testing.T) {
	var calls []string
	connectErr := errors.New("connect failed")
	op := recordingOp(errors.New("op failed"), &calls, "op")
	connect := recordingOp(connectErr, &calls, "connect")
	conn := pqreactor.NewConnection(nil)

	var gotErr error
	pqreactor.Checked(op, connect)(conn, func(err error) { gotErr = err })

	assert.Equal(t, connectErr, gotErr)
	assert.Equal(t, []string{"op", "connect"}, calls)
}

func TestCheckedDoesNotRetryTwice(t *testing.T) {
	var calls []string
	op := recordingOp(errors.New("always fails"), &calls, "op")
	connect := recordingOp(nil, &calls, "connect")
	conn := pqreactor.NewConnection(nil)

	var gotErr error
	pqreactor.Checked(op, connect)(conn, func(err error) { gotErr = err })

	assert.Error(t, gotErr)
	assert.Equal(t, []string{"op", "connect", "op"}, calls)
}
