// internal/config/messages.go
package config

// Table explicite des clés de messages requises et de leurs valeurs par
// défaut. Toute clé absente de la configuration chargée est complétée ici,
// sans introspection dynamique.
var defaultMessages = map[string]string{
	"duel.challenge.sent":     "A duel challenge has been sent to %s",
	"duel.challenge.received": "%s has challenged you to a duel",
	"duel.countdown":          "Duel starting in %d...",
	"duel.started":            "The duel has started, fight!",
	"duel.won":                "%s has won the duel",
	"duel.won.team":           "Team %d has won the duel",
	"duel.draw":               "The duel ended in a draw",
	"duel.forfeit":            "%s forfeited the duel",
	"duel.kill":               "%s was eliminated by %s",
	"duel.timeout":            "The duel time limit expired",
	"rivalry.new":             "A rivalry has formed between %s and %s",
	"rivalry.record":          "%s leads the rivalry %d-%d",
}

// EnsureMessageDefaults complète les clés manquantes d'une table de messages
func EnsureMessageDefaults(messages map[string]string) {
	for key, value := range defaultMessages {
		if _, ok := messages[key]; !ok {
			messages[key] = value
		}
	}
}

// Message retourne le message configuré pour une clé, ou son défaut
func (c *Config) Message(key string) string {
	if c.Messages != nil {
		if msg, ok := c.Messages[key]; ok {
			return msg
		}
	}
	return defaultMessages[key]
}
