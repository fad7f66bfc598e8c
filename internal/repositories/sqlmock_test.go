package repositories

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"club-chat-service/internal/authz"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var groupCols = []string{"id", "name", "description", "group_type", "is_private", "auto_join",
	"allow_member_invites", "allow_file_sharing", "max_members", "class_id",
	"last_position", "is_active", "deleted_at", "created_at", "updated_at"}

func groupRow(id int64, maxMembers interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(groupCols).
		AddRow(id, "chess club", "", "club", false, false, false, true, maxMembers, nil, 0, true, nil, now, now)
}

var membershipCols = []string{"group_id", "member_id", "role", "joined_at", "last_read_at",
	"notifications_enabled", "is_muted", "is_pinned"}

func membershipRow(groupID, memberID int64, role authz.Role, lastReadAt interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(membershipCols).
		AddRow(groupID, memberID, role, time.Now(), lastReadAt, true, false, false)
}

var messageCols = []string{"id", "group_id", "sender_id", "content", "message_type", "reply_to",
	"attachments", "position", "edited", "edited_at", "deleted", "deleted_at", "created_at"}

func messageRow(id, groupID, senderID int64, deleted bool) *sqlmock.Rows {
	var deletedAt interface{}
	if deleted {
		deletedAt = time.Now()
	}
	return sqlmock.NewRows(messageCols).
		AddRow(id, groupID, senderID, "hey", "text", nil, []byte("[]"), 7, false, nil, deleted, deletedAt, time.Now())
}
