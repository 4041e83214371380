package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandHelp
	CommandPing
	CommandList
	CommandLeave
	CommandReg
	CommandName
	CommandAll
	CommandPM
	CommandReply
	CommandForward
)

var commandWords = map[string]CommandKind{
	"help":    CommandHelp,
	"ping":    CommandPing,
	"list":    CommandList,
	"leave":   CommandLeave,
	"reg":     CommandReg,
	"name":    CommandName,
	"all":     CommandAll,
	"pm":      CommandPM,
	"reply":   CommandReply,
	"forward": CommandForward,
}

// Command is a parsed client command.
type Command struct {
	Kind CommandKind
	Args []string
}

// ParseCommand maps a command word and its arguments to a Command.
func ParseCommand(word string, args []string) Command {
	kind, ok := commandWords[word]
	if !ok {
		kind = CommandUnknown
	}
	return Command{Kind: kind, Args: args}
}

// RequiresRegistration reports whether the command is rejected for unregistered clients.
func (k CommandKind) RequiresRegistration() bool {
	switch k {
	case CommandHelp, CommandPing, CommandList, CommandLeave, CommandReg:
		return false
	default:
		return true
	}
}

// Arg returns the i-th argument or "".
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}
