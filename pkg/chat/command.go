package chat

import "strings"

// CommandContext is the subset of session state a command handler needs.
// The session package supplies a concrete implementation; chat stays
// ignorant of session/world types to avoid an import cycle.
type CommandContext interface {
	SenderName() string
	Reply(msg *Message)
	Stats() string
	Status() string
	HidePlayers()
	ShowPlayers()
	SetNick(nick string) error
	Roles() string
	FarmerStatus() string
}

// helpText lists the recognized commands (spec §4.7).
const helpText = "/help /stats /status /hideplayers /showplayers /nick /roles /farmer"

// Dispatch parses a `/`-prefixed input line and runs the matching command
// against ctx. Unknown commands reply with a red console error (spec
// §4.7).
func Dispatch(ctx CommandContext, input string) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	switch strings.ToLower(name) {
	case "help":
		ctx.Reply(ConsoleMessage(helpText))
	case "stats":
		ctx.Reply(ConsoleMessage(ctx.Stats()))
	case "status":
		ctx.Reply(ConsoleMessage(ctx.Status()))
	case "hideplayers":
		ctx.HidePlayers()
		ctx.Reply(ConsoleMessage("Other players are now hidden."))
	case "showplayers":
		ctx.ShowPlayers()
		ctx.Reply(ConsoleMessage("Other players are visible again."))
	case "nick":
		if err := ctx.SetNick(strings.TrimSpace(arg)); err != nil {
			ctx.Reply(ErrorConsoleMessage(err.Error()))
			return
		}
		ctx.Reply(ConsoleMessage("Nickname updated."))
	case "roles":
		ctx.Reply(ConsoleMessage(ctx.Roles()))
	case "farmer":
		ctx.Reply(ConsoleMessage(ctx.FarmerStatus()))
	default:
		ctx.Reply(ErrorConsoleMessage("Unknown command: /" + name))
	}
}
