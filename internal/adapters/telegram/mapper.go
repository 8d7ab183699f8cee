package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ssolovev/fishmonger/pkg/domain"
)

// updateChatID extracts the chat the update belongs to.
func updateChatID(upd tgbotapi.Update) (int64, bool) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		return upd.CallbackQuery.Message.Chat.ID, true
	case upd.Message != nil:
		return upd.Message.Chat.ID, true
	}
	return 0, false
}

// toEvent maps a Telegram update onto a dialog event. Updates that are
// neither text messages nor button presses are ignored.
func toEvent(upd tgbotapi.Update) (domain.Event, bool) {
	chatID, ok := updateChatID(upd)
	if !ok {
		return domain.Event{}, false
	}
	userID := strconv.FormatInt(chatID, 10)

	if upd.CallbackQuery != nil {
		return domain.CallbackEvent(userID, upd.CallbackQuery.Data), true
	}
	if upd.Message.Text != "" {
		return domain.TextEvent(userID, upd.Message.Text), true
	}
	return domain.Event{}, false
}

// toMessage maps a rendered reply onto an outbound Telegram message:
// a photo with caption when the reply carries an image, plain text
// otherwise.
func toMessage(chatID int64, reply *domain.Reply) tgbotapi.Chattable {
	if reply.ImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(reply.ImageURL))
		photo.Caption = reply.Text
		if markup, ok := toKeyboard(reply); ok {
			photo.ReplyMarkup = markup
		}
		return photo
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if markup, ok := toKeyboard(reply); ok {
		msg.ReplyMarkup = markup
	}
	return msg
}

func toKeyboard(reply *domain.Reply) (*tgbotapi.InlineKeyboardMarkup, bool) {
	if len(reply.Keyboard) == 0 {
		return nil, false
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Keyboard))
	for _, row := range reply.Keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Callback.Token()))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup, true
}
