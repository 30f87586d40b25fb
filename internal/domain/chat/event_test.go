package chat

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChatHistoryCarriesEmptyMessagesArray(t *testing.T) {
	data, err := json.Marshal(Event{
		Type:     EventChatHistory,
		RoomID:   "r1",
		Messages: []Message{},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !strings.Contains(string(data), `"messages":[]`) {
		t.Fatalf("chat_history for an empty room = %s, want a messages array", data)
	}
}

func TestRoomUsersCarriesZeroCount(t *testing.T) {
	data, err := json.Marshal(Event{
		Type:   EventRoomUsers,
		RoomID: "r1",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !strings.Contains(string(data), `"count":0`) {
		t.Fatalf("room_users = %s, want an explicit count", data)
	}
}
