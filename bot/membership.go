package bot

import (
	"fmt"
	"strconv"
)

// isMember reports whether the user is currently present in the chat.
// Creator, administrator and plain member statuses count; a restricted
// member counts only while still inside the chat; left and kicked do not.
func (t *TgBot) isMember(chatId, userId int64) (bool, error) {
	member, err := t.api.GetChatMember(chatId, userId, nil)
	if err != nil {
		return false, fmt.Errorf("get chat member %d in %d: %w", userId, chatId, err)
	}
	switch member.GetStatus() {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		return member.MergeChatMember().IsMember, nil
	default:
		return false, nil
	}
}

// missingMemberships returns the required chats the user is not in. An
// error from any membership lookup aborts the whole check: a key is never
// issued on an unverified membership.
func (t *TgBot) missingMemberships(userId int64) ([]int64, error) {
	var missing []int64
	for _, chatId := range t.config.RequiredChats {
		ok, err := t.isMember(chatId, userId)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, chatId)
		}
	}
	return missing, nil
}

// requiredScopes renders the configured required chats in their configured
// order, the form they are recorded in on issued keys.
func (t *TgBot) requiredScopes() []string {
	scopes := make([]string, 0, len(t.config.RequiredChats))
	for _, chatId := range t.config.RequiredChats {
		scopes = append(scopes, strconv.FormatInt(chatId, 10))
	}
	return scopes
}
