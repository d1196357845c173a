package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormattingAndUnwrap(t *testing.T) {
	cause := errors.New("conn reset")
	err := NewTransportErr("read failed", cause)

	require.Equal(t, "[TRANSPORT_ERROR] read failed: conn reset", err.Error())
	require.ErrorIs(t, err, cause)
	require.Equal(t, "read failed", err.Message())
	require.Equal(t, cause, err.Cause())
	require.Equal(t, "[INVALID_ARGUMENT] bad", NewInvalidArgErr("bad", nil).Error())
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "invalid_arg", err: NewInvalidArgErr("x", nil), want: invalidArgumentCode},
		{name: "wrapped_persistence", err: fmt.Errorf("ctx: %w", NewPersistenceErr("x", nil)), want: persistenceCode},
		{name: "decode", err: NewProtocolDecodeErr("x", nil), want: protocolDecodeCode},
		{name: "plain", err: errors.New("x"), want: internalErrorCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
	require.True(t, IsInvalidArg(fmt.Errorf("wrap: %w", NewInvalidArgErr("x", nil))))
	require.False(t, IsInvalidArg(NewDeliveryErr("x", nil)))
}
