package errmsg

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	keyBadRequest    = "status.400"
	keyUnauthorized  = "status.401"
	keyForbidden     = "status.403"
	keyNotFound      = "status.404"
	keyUnprocessable = "status.422"
	keyUnavailable   = "status.5xx.unavailable"
	keyClientGeneric = "status.4xx"
	keyServerGeneric = "status.5xx"
	keyNetwork       = "network"
	keyTimeout       = "network.timeout"
	keyEmptyBody     = "empty_body"
	keyRateLimit     = "rate_limit"
	keyCanceled      = "canceled"
	keyUnknown       = "unknown"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		keyBadRequest:    "Bad request. Please check the parameters.",
		keyUnauthorized:  "Unauthorized. Please check your access key or log in again.",
		keyForbidden:     "Access denied. Your access key lacks the required permission.",
		keyNotFound:      "The requested resource was not found.",
		keyUnprocessable: "The request could not be processed.",
		keyUnavailable:   "The server is currently unavailable. Please try again later.",
		keyClientGeneric: "Request failed (HTTP %d).",
		keyServerGeneric: "Server error (HTTP %d). Please try again later.",
		keyNetwork:       "No connection to the server. Please check your network.",
		keyTimeout:       "The server did not respond in time.",
		keyEmptyBody:     "The server returned an empty response.",
		keyRateLimit:     "Hourly request limit reached. Please try again later.",
		keyCanceled:      "The request was canceled.",
		keyUnknown:       "An unexpected error occurred: %s",
	},
	language.German: {
		keyBadRequest:    "Ungültige Anfrage. Bitte prüfe die Parameter.",
		keyUnauthorized:  "Nicht autorisiert. Bitte prüfe den Zugriffsschlüssel oder melde dich erneut an.",
		keyForbidden:     "Zugriff verweigert. Dem Zugriffsschlüssel fehlt die nötige Berechtigung.",
		keyNotFound:      "Die angeforderte Ressource wurde nicht gefunden.",
		keyUnprocessable: "Die Anfrage konnte nicht verarbeitet werden.",
		keyUnavailable:   "Der Server ist derzeit nicht erreichbar. Bitte versuche es später erneut.",
		keyClientGeneric: "Anfrage fehlgeschlagen (HTTP %d).",
		keyServerGeneric: "Serverfehler (HTTP %d). Bitte versuche es später erneut.",
		keyNetwork:       "Keine Verbindung zum Server. Bitte prüfe deine Netzwerkverbindung.",
		keyTimeout:       "Der Server hat nicht rechtzeitig geantwortet.",
		keyEmptyBody:     "Der Server hat eine leere Antwort geliefert.",
		keyRateLimit:     "Stündliches Anfragelimit erreicht. Bitte versuche es später erneut.",
		keyCanceled:      "Die Anfrage wurde abgebrochen.",
		keyUnknown:       "Ein unerwarteter Fehler ist aufgetreten: %s",
	},
}

// Supported lists the available locales. The first entry is the fallback.
var Supported = []language.Tag{language.English, language.German}

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("errmsg: invalid catalog entry " + key + ": " + err.Error())
			}
		}
	}
	return b
}
