package routing

import (
	"fmt"
	"strings"
)

// Maneuver is the subset of an OSRM step used to phrase an instruction.
type Maneuver struct {
	Type     string
	Modifier string
	Road     string
}

// Phrasebook turns a maneuver into instruction text when the routing
// service returns none.
type Phrasebook interface {
	Describe(m Maneuver) string
}

// PhrasebookFor returns the phrasebook for a BCP 47 locale tag.
// Unknown locales fall back to English.
func PhrasebookFor(locale string) Phrasebook {
	if strings.HasPrefix(strings.ToLower(locale), "cs") {
		return czech{}
	}
	return english{}
}

type english struct{}

var englishModifiers = map[string]string{
	"uturn":        "make a U-turn",
	"sharp right":  "turn sharp right",
	"right":        "turn right",
	"slight right": "bear right",
	"straight":     "continue straight",
	"slight left":  "bear left",
	"left":         "turn left",
	"sharp left":   "turn sharp left",
}

func (english) Describe(m Maneuver) string {
	var text string
	switch m.Type {
	case "depart":
		text = "Head out"
	case "arrive":
		return "You have arrived at your destination"
	case "roundabout", "rotary":
		text = "Enter the roundabout"
	case "merge":
		text = "Merge"
	case "on ramp":
		text = "Take the ramp"
	case "off ramp":
		text = "Take the exit"
	default:
		if phrase, ok := englishModifiers[m.Modifier]; ok {
			text = capitalize(phrase)
		} else {
			text = "Continue"
		}
	}

	if m.Road != "" {
		return fmt.Sprintf("%s onto %s", text, m.Road)
	}
	return text
}

type czech struct{}

var czechModifiers = map[string]string{
	"uturn":        "otočte se",
	"sharp right":  "odbočte ostře vpravo",
	"right":        "odbočte vpravo",
	"slight right": "držte se vpravo",
	"straight":     "pokračujte rovně",
	"slight left":  "držte se vlevo",
	"left":         "odbočte vlevo",
	"sharp left":   "odbočte ostře vlevo",
}

func (czech) Describe(m Maneuver) string {
	var text string
	switch m.Type {
	case "depart":
		text = "Vyjeďte"
	case "arrive":
		return "Dorazili jste do cíle"
	case "roundabout", "rotary":
		text = "Vjeďte na kruhový objezd"
	case "merge":
		text = "Připojte se"
	case "on ramp":
		text = "Najeďte na nájezd"
	case "off ramp":
		text = "Sjeďte z výjezdu"
	default:
		if phrase, ok := czechModifiers[m.Modifier]; ok {
			text = capitalize(phrase)
		} else {
			text = "Pokračujte"
		}
	}

	if m.Road != "" {
		return fmt.Sprintf("%s na %s", text, m.Road)
	}
	return text
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
