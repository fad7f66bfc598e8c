package repositories

import (
	"encoding/base64"
	"strconv"

	"club-chat-service/internal/apperr"
)

// Message pages are keyed by log position. The cursor is opaque to callers.

// EncodeCursor wraps a log position into an opaque page cursor.
func EncodeCursor(position int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(position, 10)))
}

// DecodeCursor unwraps a page cursor. An empty cursor means "from the top".
func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, apperr.Validation(apperr.CodeBadSettings, "malformed cursor")
	}
	position, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || position < 1 {
		return 0, apperr.Validation(apperr.CodeBadSettings, "malformed cursor")
	}
	return position, nil
}
