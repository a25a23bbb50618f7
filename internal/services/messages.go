package services

import "strings"

// MessageKind names a user-facing situation. Wording is per locale; the set
// of situations is fixed.
type MessageKind string

const (
	MsgPrompt              MessageKind = "prompt"
	MsgLocating            MessageKind = "locating"
	MsgSearching           MessageKind = "searching"
	MsgDestinationFound    MessageKind = "destination_found"
	MsgDestinationNotFound MessageKind = "destination_not_found"
	MsgLookupFailed        MessageKind = "lookup_failed"
	MsgEmptyInput          MessageKind = "empty_input"
	MsgRecalculating       MessageKind = "recalculating"
	MsgOffRoute            MessageKind = "off_route"
	MsgNoDestination       MessageKind = "no_destination"
	MsgNoPosition          MessageKind = "no_position"
	MsgRoutingFailed       MessageKind = "routing_failed"
	MsgNavigating          MessageKind = "navigating"
	MsgLocationError       MessageKind = "location_error"
)

type Messages map[MessageKind]string

var czech = Messages{
	MsgPrompt:              "Zadejte cíl cesty.",
	MsgLocating:            "Zjišťuji vaši polohu…",
	MsgSearching:           "Hledám cíl…",
	MsgDestinationFound:    "Cíl nalezen, spouštím navigaci.",
	MsgDestinationNotFound: "Cíl nebyl nalezen.",
	MsgLookupFailed:        "Vyhledání cíle se nezdařilo. Zkuste to prosím znovu.",
	MsgEmptyInput:          "Zadejte prosím cíl.",
	MsgRecalculating:       "Přepočítávám trasu.",
	MsgOffRoute:            "Jste mimo trasu, přepočítávám.",
	MsgNoDestination:       "Nejprve prosím zadejte platný cíl.",
	MsgNoPosition:          "Vaše poloha zatím není známa.",
	MsgRoutingFailed:       "Nepodařilo se přepočítat trasu. Zkuste to prosím znovu.",
	MsgNavigating:          "Navigace spuštěna.",
	MsgLocationError:       "Nepodařilo se zjistit polohu",
}

var english = Messages{
	MsgPrompt:              "Enter a destination.",
	MsgLocating:            "Finding your location…",
	MsgSearching:           "Searching for destination…",
	MsgDestinationFound:    "Destination found, starting navigation.",
	MsgDestinationNotFound: "Destination not found.",
	MsgLookupFailed:        "Destination lookup failed. Please try again.",
	MsgEmptyInput:          "Please enter a destination.",
	MsgRecalculating:       "Recalculating route.",
	MsgOffRoute:            "You are off route, recalculating.",
	MsgNoDestination:       "Please set a valid destination first.",
	MsgNoPosition:          "Your location is not known yet.",
	MsgRoutingFailed:       "Could not recalculate the route. Please try again.",
	MsgNavigating:          "Navigating.",
	MsgLocationError:       "Could not determine your location",
}

// MessagesFor returns the catalog for a locale tag. Czech is the default.
func MessagesFor(locale string) Messages {
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return english
	}
	return czech
}

func (m Messages) Text(kind MessageKind) string {
	if s, ok := m[kind]; ok {
		return s
	}
	return string(kind)
}
