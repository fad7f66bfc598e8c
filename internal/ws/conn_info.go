package ws

import "time"

type ConnInfo struct {
	ConnID      string
	MemberID    int64
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
