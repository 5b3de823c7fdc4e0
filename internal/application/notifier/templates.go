package notifier

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/team-progress-api/internal/domain"
)

// Notification titles. The mobile clients display them as-is.
const (
	TitleDailyReminder      = "¡Es hora de brillar! ✨"
	TitleInactivityReminder = "¡Te extrañamos! 🌟"
	TitleDefault            = "¡Es hora de registrar tu progreso!"
)

// messagePools holds the motivational phrases per communication category.
var messagePools = map[string][]string{
	domain.CategoryLatino: {
		"¡Vamos, que tú puedes! 💪",
		"Un pequeño paso cada día hace grandes diferencias 🌟",
		"El equipo te extraña, ¡regresa pronto! 👥",
		"Tu progreso inspira a todos 🚀",
		"¡Dale que se puede! 🎉",
	},
	domain.CategoryNorteamericano: {
		"Stay focused and keep moving forward! 🎯",
		"Progress, not perfection! 📈",
		"Your team is counting on you! 💼",
		"Let's get back on track! ⚡",
		"Time to level up! 🚀",
	},
	domain.CategoryEuropeo: {
		"Steady progress leads to success 🎯",
		"Your consistency matters to the team 📊",
		"Small steps, big achievements 🏆",
		"Let's maintain our momentum! 💫",
		"Excellence through persistence 💎",
	},
	domain.CategoryAsiatico: {
		"Perseverance brings great rewards 🌸",
		"Harmony in team progress 🎋",
		"Step by step towards excellence 🗾",
		"Your dedication strengthens us all 💎",
		"Balance brings success 🌺",
	},
	domain.CategoryAfricano: {
		"Ubuntu: Together we are stronger! 🌍",
		"Every step forward lifts the whole community 🤝",
		"Your journey inspires the collective spirit 🌅",
		"In unity, we find our strength! 💪",
		"Ubuntu spirit drives us forward! 🦁",
	},
}

// PickMessage returns one phrase chosen uniformly at random from the pool for
// the given category. Unknown or empty categories fall back to the latino pool.
func PickMessage(category string) string {
	pool, ok := messagePools[category]
	if !ok {
		pool = messagePools[domain.CategoryLatino]
	}
	return pool[rand.IntN(len(pool))]
}

// ReminderBody builds the daily-reminder body: a random phrase for the
// category, plus the days-inactive clause when the last activity is known.
func ReminderBody(category string, lastActivityAt *time.Time, now time.Time) string {
	body := PickMessage(category)
	if lastActivityAt != nil {
		days := int(now.Sub(*lastActivityAt).Hours() / 24)
		body += fmt.Sprintf(" Has estado %d día(s) sin registrar avances.", days)
	}
	return body
}
