package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

// Dispatch executes one command for this worker's client. It reports whether
// the client asked to leave. Client mistakes are answered inline and never
// returned; a returned error is an infrastructure failure.
func (w *Worker) Dispatch(ctx context.Context, cmd Command) (bool, error) {
	if !w.self.Registered && cmd.Kind.RequiresRegistration() {
		w.writeError(errRegisterFirst)
		return false, nil
	}

	switch cmd.Kind {
	case CommandHelp:
		w.write(proto.HelpText)
	case CommandPing:
		w.write(proto.Pong)
	case CommandLeave:
		return true, nil
	case CommandList:
		return false, w.list(ctx)
	case CommandReg:
		return false, w.register(ctx, cmd.Arg(0))
	case CommandName:
		return false, w.rename(ctx, cmd.Arg(0))
	case CommandAll:
		return false, w.broadcast(ctx, cmd.Args)
	case CommandPM:
		return false, w.privateMessage(ctx, cmd.Args)
	case CommandReply:
		return false, w.reply(ctx, cmd.Args)
	case CommandForward:
		return false, w.forward(ctx, cmd.Arg(0))
	default:
		w.writeError(errInvalidCommand)
	}
	return false, nil
}

func (w *Worker) list(ctx context.Context) error {
	snap, err := w.Refresh(ctx)
	if err != nil {
		return err
	}
	entries := make([]proto.ListEntry, 0, len(snap.Entries))
	for _, rec := range snap.Entries {
		entries = append(entries, proto.ListEntry{Name: rec.Name, Online: rec.Online})
	}
	w.write(proto.UserList(entries))
	return nil
}

func (w *Worker) register(ctx context.Context, name string) error {
	if w.self.Registered {
		w.writeError(errAlreadyRegistered)
		return nil
	}
	if name == "" {
		w.writeError(errNameRequired)
		return nil
	}
	taken, err := w.nameTaken(ctx, name)
	if err != nil {
		return err
	}
	if taken {
		w.writeError(errNameExists)
		return nil
	}

	ev := Envelope{Kind: EnvelopeRegistered, UserID: w.self.UserID, Name: name}
	if err := w.transport.Send(w.coordinator, ev); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}
	w.self.Name = name
	w.self.Registered = true

	notice := proto.Joined(name)
	w.write(notice)
	_, err = w.delivery.Broadcast(ctx, w.self, notice, false)
	return err
}

func (w *Worker) rename(ctx context.Context, name string) error {
	if name == "" {
		w.writeError(errNameRequired)
		return nil
	}
	if name == w.self.Name {
		w.writeError(errSameName)
		return nil
	}
	taken, err := w.nameTaken(ctx, name)
	if err != nil {
		return err
	}
	if taken {
		w.writeError(errNameExists)
		return nil
	}

	old := w.self.Name
	ev := Envelope{Kind: EnvelopeRenamed, UserID: w.self.UserID, Name: name, OldName: old}
	if err := w.transport.Send(w.coordinator, ev); err != nil {
		return fmt.Errorf("send rename: %w", err)
	}
	w.self.Name = name

	notice := proto.Renamed(old, name)
	w.write(notice)
	_, err = w.delivery.Broadcast(ctx, w.self, notice, false)
	return err
}

func (w *Worker) nameTaken(ctx context.Context, name string) (bool, error) {
	if name == UnregisteredName {
		return true, nil
	}
	snap, err := w.Refresh(ctx)
	if err != nil {
		return false, err
	}
	return snap.NameTaken(name), nil
}

func (w *Worker) broadcast(ctx context.Context, words []string) error {
	if len(words) == 0 {
		w.writeError(errEmptyMessage)
		return nil
	}
	text := strings.Join(words, " ")

	if _, err := w.delivery.Broadcast(ctx, w.self, text, true); err != nil {
		return err
	}
	w.log.Info().Str("name", w.self.Name).Str("text", text).Msg("broadcasting")
	w.write(proto.BroadcastReport(text))
	return nil
}

func (w *Worker) privateMessage(ctx context.Context, args []string) error {
	if len(args) == 0 {
		w.writeError(errTargetRequired)
		return nil
	}
	if len(args) == 1 {
		w.writeError(errEmptyMessage)
		return nil
	}
	target := args[0]
	text := strings.Join(args[1:], " ")

	w.convo.LastMessage = text
	w.convo.LastContact = target
	return w.sendPrivate(ctx, target, text)
}

func (w *Worker) reply(ctx context.Context, words []string) error {
	if w.convo.LastContact == "" {
		w.writeError(errNoConversation)
		return nil
	}
	if len(words) == 0 {
		w.writeError(errEmptyMessage)
		return nil
	}
	text := strings.Join(words, " ")

	w.convo.LastMessage = text
	return w.sendPrivate(ctx, w.convo.LastContact, text)
}

func (w *Worker) forward(ctx context.Context, target string) error {
	if w.convo.LastMessage == "" {
		w.writeError(errNoConversation)
		return nil
	}
	if target == "" {
		w.writeError(errTargetRequired)
		return nil
	}

	w.convo.LastContact = target
	return w.sendPrivate(ctx, target, w.convo.LastMessage)
}

// sendPrivate delivers text and reports the outcome to the sender.
func (w *Worker) sendPrivate(ctx context.Context, target, text string) error {
	res, err := w.delivery.SendPrivate(ctx, w.self, target, text)
	if err != nil {
		return err
	}
	switch res {
	case Delivered:
		w.write(proto.DeliveryReport(target, text))
	case RejectedSentinel:
		w.writeError(errUnregisteredPeer)
	default:
		w.writeError(errUserNotFound)
	}
	return nil
}
