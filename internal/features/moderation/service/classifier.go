package service

import (
	"fmt"
	"regexp"
)

// Matches both https://t.me/nft/Name-123 and bare t.me/nft/Name-123.
var (
	giftLinkRe = regexp.MustCompile(`(https://t\.me/nft/|t\.me/nft/)(\w+)-(\d+)`)
	anyLinkRe  = regexp.MustCompile(`https?://`)
)

// GiftLink is a parsed collectible-gift link.
type GiftLink struct {
	Name   string
	Number string
}

func detectGiftLink(text string) (GiftLink, bool) {
	m := giftLinkRe.FindStringSubmatch(text)
	if m == nil {
		return GiftLink{}, false
	}
	return GiftLink{Name: m[2], Number: m[3]}, true
}

func hasLink(text string) bool {
	return anyLinkRe.MatchString(text)
}

func giftCaption(senderLink, original string, link GiftLink) string {
	return fmt.Sprintf(
		"🐵 *Пользователь %s отправляет ссылку на коллекционный подарок!*\n\n"+
			"🔗 *Отправленная ссылка:* %s\n\n"+
			"🎁 *Название подарка:* `%s`\n"+
			"🔢 *Номер подарка:* `%s`",
		senderLink, original, link.Name, link.Number)
}
