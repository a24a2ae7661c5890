package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchTogether/internal/domain"
)

func TestErrorCode(t *testing.T) {
	cases := map[error]string{
		domain.ErrRoomNotFound:                        CodeRoomNotFound,
		domain.ErrBadPassword:                         CodeBadPassword,
		domain.ErrNotOwner:                            CodeNotOwner,
		domain.ErrNotInRoom:                           CodeNotInRoom,
		domain.ErrCreationFailed:                      CodeCreationFailed,
		fmt.Errorf("join: %w", domain.ErrBadPassword): CodeBadPassword,
		errors.New("boom"):                            CodeUnavailable,
	}
	for err, want := range cases {
		assert.Equal(t, want, errorCode(err), err.Error())
	}
}

func TestEncodeAck(t *testing.T) {
	ack := int64(7)
	frame, err := encode(eventAck, &ack, ackFailure{Error: CodeNotOwner})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"ack","ack":7,"data":{"success":false,"error":"not_owner"}}`, string(frame))

	frame, err = encode("pong", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"pong"}`, string(frame))

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"event":"seek","data":{"t":3}}`), &env))
	assert.Nil(t, env.Ack)
	assert.JSONEq(t, `{"t":3}`, string(env.Data))
}
