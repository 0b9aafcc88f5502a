package domain

// IntentType classifies what the user asked for.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentWhatDoesItSay
	IntentImitateAnimal
	IntentHelp
	IntentQuit
)

// SlotAnimal is the slot carrying the spoken animal name.
const SlotAnimal = "animal"

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentWhatDoesItSay:
		return "what_does_it_say"
	case IntentImitateAnimal:
		return "imitate_animal"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent is a recognized utterance with its extracted slots.
type Intent struct {
	Type      IntentType
	Utterance string
	Slots     map[string]string
}

// Slot returns the named slot value and whether it was captured.
func (i *Intent) Slot(name string) (string, bool) {
	if i == nil || i.Slots == nil {
		return "", false
	}
	v, ok := i.Slots[name]
	return v, ok && v != ""
}

// intentFiles maps intent template file names to intent types.
var intentFiles = map[string]IntentType{
	"what.does.it.say.intent": IntentWhatDoesItSay,
	"imitate.animal.intent":   IntentImitateAnimal,
	"help.intent":             IntentHelp,
	"quit.intent":             IntentQuit,
}

// IntentFromFile returns the intent type registered for a template file
// name. Returns IntentUnknown and false for unregistered files.
func IntentFromFile(name string) (IntentType, bool) {
	t, ok := intentFiles[name]
	return t, ok
}
