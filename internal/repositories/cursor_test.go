package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"club-chat-service/internal/apperr"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, position := range []int64{1, 42, 1 << 40} {
		cursor := EncodeCursor(position)
		decoded, err := DecodeCursor(cursor)
		require.NoError(t, err)
		require.Equal(t, position, decoded)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	position, err := DecodeCursor("")
	require.NoError(t, err)
	require.Zero(t, position)
}

func TestDecodeCursorMalformed(t *testing.T) {
	for _, cursor := range []string{"???", "bm90YW51bWJlcg", EncodeCursor(-5)} {
		_, err := DecodeCursor(cursor)
		require.Error(t, err)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}
