// internal/websocket/utils.go
package websocket

import (
	"encoding/json"

	"amayalert-service/internal/domain/message"
	wstypes "amayalert-service/internal/domain/websocket"
	"amayalert-service/internal/service/chat"
)

// DecodeData converts a message payload into target.
func DecodeData(data interface{}, target interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// updateMessage maps a bridge update onto the socket event it produces.
func updateMessage(u chat.Update) *wstypes.WSMessage {
	switch u.Kind {
	case chat.UpdateThread:
		msgs := u.Messages
		if msgs == nil {
			msgs = []*message.Message{}
		}
		return wstypes.NewMessage(wstypes.EventTypeChatThread, wstypes.ThreadData{PeerID: u.PeerID, Messages: msgs})
	case chat.UpdateAppend:
		return wstypes.NewMessage(wstypes.EventTypeChatMessage, u.Message)
	case chat.UpdateReplace:
		return wstypes.NewMessage(wstypes.EventTypeChatMessageUpdated, u.Message)
	case chat.UpdateRemove:
		return wstypes.NewMessage(wstypes.EventTypeChatMessageDeleted, wstypes.MessageIDData{ID: u.MessageID})
	case chat.UpdateUnread:
		return wstypes.NewMessage(wstypes.EventTypeChatUnread, wstypes.UnreadData{Counts: u.Unread})
	case chat.UpdateScroll:
		return wstypes.NewMessage(wstypes.EventTypeChatScroll, wstypes.ScrollData{PeerID: u.PeerID})
	}
	return nil
}
