package notify

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	tele "gopkg.in/telebot.v3"

	"youtube-keyword-notifier/youtube"
)

const (
	matchMessage = "Found keyword %q in new video by %v:\r\n%v\r\nhttps://youtube.com/watch?v=%v"
	videoMessage = "New video by %v:\r\n%v\r\nhttps://youtube.com/watch?v=%v"
)

// TelegramNotifier delivers matches to a single chat.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatId int64
}

func NewTelegramNotifier(token string, chatId int64) (*TelegramNotifier, error) {
	s := tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: time.Second * 10,
		},
	}
	bot, err := tele.NewBot(s)
	if err != nil {
		return nil, errors.Wrap(err, "error during creation of a new bot")
	}
	return &TelegramNotifier{bot: bot, chatId: chatId}, nil
}

func (n *TelegramNotifier) NotifyMatch(video youtube.VideoInfo, keyword string) error {
	var message string
	if keyword != "" {
		message = fmt.Sprintf(matchMessage, keyword, video.Channel.Title, video.Title, video.Id)
	} else {
		message = fmt.Sprintf(videoMessage, video.Channel.Title, video.Title, video.Id)
	}
	_, err := n.bot.Send(tele.ChatID(n.chatId), message)
	if err != nil {
		return errors.Wrap(err, "unable to send telegram notification")
	}
	return nil
}
