// Package notifier informs the notification dispatcher of chat side effects.
// Delivery is best-effort: publish failures are counted and logged, never
// surfaced to the caller.
package notifier

import (
	"context"
	"log"
	"time"

	"club-chat-service/internal/models"
	"club-chat-service/internal/rabbitmq"
)

// Routing keys per event family.
const (
	RouteMessages    = "chat.events.messages"
	RouteReactions   = "chat.events.reactions"
	RouteMemberships = "chat.events.memberships"
	RouteGroups      = "chat.events.groups"
)

// Event is the payload handed to the notification dispatcher.
type Event struct {
	SchemaVersion int    `json:"schema_version"`
	EventName     string `json:"event_name"`
	OccurredAt    string `json:"occurred_at"`
	GroupID       int64  `json:"group_id"`
	ActorID       int64  `json:"actor_id"`
	TargetID      int64  `json:"target_id,omitempty"`
	MessageID     int64  `json:"message_id,omitempty"`
	Emoji         string `json:"emoji,omitempty"`
}

// Notifier publishes chat domain events over AMQP.
type Notifier struct {
	publisher rabbitmq.Publisher
}

// New constructs a Notifier. publisher may be a noop publisher.
func New(publisher rabbitmq.Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

func (n *Notifier) GroupCreated(ctx context.Context, group models.Group, actorID int64) {
	n.publish(ctx, RouteGroups, Event{EventName: "group.created", GroupID: group.ID, ActorID: actorID})
}

func (n *Notifier) GroupDeleted(ctx context.Context, groupID, actorID int64) {
	n.publish(ctx, RouteGroups, Event{EventName: "group.deleted", GroupID: groupID, ActorID: actorID})
}

func (n *Notifier) MemberAdded(ctx context.Context, groupID, actorID, targetID int64) {
	n.publish(ctx, RouteMemberships, Event{EventName: "member.added", GroupID: groupID, ActorID: actorID, TargetID: targetID})
}

func (n *Notifier) MemberRemoved(ctx context.Context, groupID, actorID, targetID int64) {
	n.publish(ctx, RouteMemberships, Event{EventName: "member.removed", GroupID: groupID, ActorID: actorID, TargetID: targetID})
}

func (n *Notifier) RoleChanged(ctx context.Context, groupID, actorID, targetID int64, event string) {
	n.publish(ctx, RouteMemberships, Event{EventName: event, GroupID: groupID, ActorID: actorID, TargetID: targetID})
}

func (n *Notifier) MessageSent(ctx context.Context, msg models.Message) {
	n.publish(ctx, RouteMessages, Event{EventName: "message.sent", GroupID: msg.GroupID, ActorID: msg.SenderID, MessageID: msg.ID})
}

func (n *Notifier) MessageDeleted(ctx context.Context, groupID, actorID, messageID int64) {
	n.publish(ctx, RouteMessages, Event{EventName: "message.deleted", GroupID: groupID, ActorID: actorID, MessageID: messageID})
}

func (n *Notifier) ReactionToggled(ctx context.Context, groupID, actorID, messageID int64, emoji string, added bool) {
	event := "reaction.removed"
	if added {
		event = "reaction.added"
	}
	n.publish(ctx, RouteReactions, Event{EventName: event, GroupID: groupID, ActorID: actorID, MessageID: messageID, Emoji: emoji})
}

func (n *Notifier) publish(ctx context.Context, routingKey string, event Event) {
	if n == nil || n.publisher == nil {
		return
	}
	event.SchemaVersion = 1
	event.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := n.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Printf("notifier publish failed event=%s: %v", event.EventName, err)
	}
}
