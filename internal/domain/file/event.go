package file

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventUploaded EventType = "file.uploaded"
	EventUpdated  EventType = "file.updated"
	EventDeleted  EventType = "file.deleted"
	EventExpired  EventType = "file.expired"
)

var EventTypes = []EventType{EventUploaded, EventUpdated, EventDeleted, EventExpired}

type (
	Event struct {
		ID      uuid.UUID    `json:"event_id"`
		TS      time.Time    `json:"time_stamp"`
		Type    EventType    `json:"event_type"`
		ActorID string       `json:"actor_id,omitempty"`
		Payload EventPayload `json:"file_payload"`
	}
	EventPayload struct {
		FileID            string `json:"file_id"`
		OriginalName      string `json:"original_name"`
		MimeType          string `json:"mime_type"`
		SizeBytes         int64  `json:"size_bytes"`
		RecipientUserName string `json:"recipient_user_name"`
		SenderName        string `json:"sender_name"`
	}
)

// NewEvent snapshots r. actorID is empty for sweeper-driven events.
func NewEvent(t EventType, actorID string, r *Record) Event {
	return Event{
		ID:      uuid.New(),
		TS:      time.Now().UTC(),
		Type:    t,
		ActorID: actorID,
		Payload: EventPayload{
			FileID:            r.ID.String(),
			OriginalName:      r.OriginalName,
			MimeType:          r.MimeType,
			SizeBytes:         r.SizeBytes,
			RecipientUserName: r.RecipientUserName,
			SenderName:        r.SenderName,
		},
	}
}
