package bot

import "strings"

type command int

const (
	cmdNone command = iota
	cmdFarm
	cmdProfile
	cmdTopAllTime
	cmdTopDaily
	cmdGiveawayStart
	cmdGiveawayEnd
	cmdExport
)

var commandWords = map[string]command{
	"фарма":    cmdFarm,
	"профиль":  cmdProfile,
	"топ":      cmdTopAllTime,
	"топ дня":  cmdTopDaily,
	"розыгрыш": cmdGiveawayStart,
	"итоги":    cmdGiveawayEnd,
	"выгрузка": cmdExport,
}

// matchCommand recognizes command keywords by whole-message equality,
// case-insensitively. "топ" and "топ дня" cannot collide this way.
func matchCommand(text string) command {
	return commandWords[strings.ToLower(strings.TrimSpace(text))]
}
