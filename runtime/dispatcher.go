package runtime

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"groupguard/chat"
	"groupguard/domain"
	"groupguard/errors"
)

// Dispatcher turns admin messages into registry/corpus mutations and remote
// calls. It is stateless per invocation; everything it owns is a reference.
type Dispatcher struct {
	log      *slog.Logger
	registry *LockRegistry
	corpus   *Corpus
	session  chat.Session
	runner   Runner
}

func NewDispatcher(log *slog.Logger, registry *LockRegistry, corpus *Corpus, session chat.Session, runner Runner) *Dispatcher {
	return &Dispatcher{
		log:      log,
		registry: registry,
		corpus:   corpus,
		session:  session,
		runner:   runner,
	}
}

// commandSpec describes one entry of the command table: its argument shape,
// the usage shown on a malformed call, and the handler. maxArgs < 0 means
// unbounded (free-text commands).
type commandSpec struct {
	usage   string
	summary string
	minArgs int
	maxArgs int
	handle  func(d *Dispatcher, ctx context.Context, group domain.GroupID, args []string)
}

var commandTable map[string]commandSpec

func init() {
	commandTable = map[string]commandSpec{
		"help": {
			usage:   "help",
			summary: "list all commands",
			handle:  (*Dispatcher).cmdHelp,
		},
		"lockname": {
			usage:   "lockname <title>",
			summary: "lock the group title",
			minArgs: 1, maxArgs: -1,
			handle: (*Dispatcher).cmdLockName,
		},
		"unlockname": {
			usage:   "unlockname",
			summary: "remove the title lock",
			handle:  (*Dispatcher).cmdUnlockName,
		},
		"locknick": {
			usage:   "locknick <uid> <nickname>",
			summary: "lock a member's nickname",
			minArgs: 2, maxArgs: -1,
			handle: (*Dispatcher).cmdLockNick,
		},
		"unlocknick": {
			usage:   "unlocknick <uid>",
			summary: "remove a member's nickname lock",
			minArgs: 1, maxArgs: 1,
			handle: (*Dispatcher).cmdUnlockNick,
		},
		"msg": {
			usage:   "msg <uid>",
			summary: "send a random message mentioning a member",
			minArgs: 1, maxArgs: 1,
			handle: (*Dispatcher).cmdMsg,
		},
		"addmsg": {
			usage:   "addmsg <text>",
			summary: "add a message to the corpus",
			minArgs: 1, maxArgs: -1,
			handle: (*Dispatcher).cmdAddMsg,
		},
		"delmsg": {
			usage:   "delmsg <index>",
			summary: "remove a message by its listed index",
			minArgs: 1, maxArgs: 1,
			handle: (*Dispatcher).cmdDelMsg,
		},
		"listmsgs": {
			usage:   "listmsgs",
			summary: "list the message corpus",
			handle:  (*Dispatcher).cmdListMsgs,
		},
		"reloadmsgs": {
			usage:   "reloadmsgs",
			summary: "reload the corpus from disk",
			handle:  (*Dispatcher).cmdReloadMsgs,
		},
		"setprefix": {
			usage:   "setprefix <prefix>",
			summary: "change the command prefix",
			minArgs: 1, maxArgs: 1,
			handle: (*Dispatcher).cmdSetPrefix,
		},
		"setadmin": {
			usage:   "setadmin <uid>",
			summary: "hand admin rights to another member",
			minArgs: 1, maxArgs: 1,
			handle: (*Dispatcher).cmdSetAdmin,
		},
		"listlocks": {
			usage:   "listlocks",
			summary: "show the locks for this group",
			handle:  (*Dispatcher).cmdListLocks,
		},
		"unlockall": {
			usage:   "unlockall",
			summary: "remove every lock for this group",
			handle:  (*Dispatcher).cmdUnlockAll,
		},
	}
}

// Handle applies the entire authorization model: exact admin match plus the
// current prefix. Anything else is a silent no-op, not an error.
func (d *Dispatcher) Handle(ctx context.Context, cmd domain.CommandCandidate) {
	if cmd.Sender != d.registry.Admin() {
		return
	}
	text := strings.TrimSpace(cmd.Text)
	prefix := d.registry.Prefix()
	if !strings.HasPrefix(text, prefix) {
		return
	}

	fields := strings.Fields(strings.TrimSpace(strings.TrimPrefix(text, prefix)))
	if len(fields) == 0 {
		d.replyUnknown(ctx, cmd.Room)
		return
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	spec, ok := commandTable[name]
	if !ok {
		d.replyUnknown(ctx, cmd.Room)
		return
	}
	if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
		d.reply(ctx, cmd.Room, "Usage: "+prefix+spec.usage)
		return
	}

	spec.handle(d, ctx, cmd.Room, args)
}

func (d *Dispatcher) cmdHelp(ctx context.Context, group domain.GroupID, _ []string) {
	prefix := d.registry.Prefix()
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range names {
		spec := commandTable[name]
		fmt.Fprintf(&b, "%s%s - %s\n", prefix, spec.usage, spec.summary)
	}
	d.reply(ctx, group, strings.TrimRight(b.String(), "\n"))
}

func (d *Dispatcher) cmdLockName(ctx context.Context, group domain.GroupID, args []string) {
	title := strings.Join(args, " ")
	d.registry.SetLockedTitle(group, title)
	d.runner.Async(
		func() error { return d.session.SetTitle(ctx, title, group) },
		func(err error) {
			if err != nil {
				d.reply(ctx, group, "Title locked, but setting it failed: "+err.Error())
				return
			}
			d.reply(ctx, group, fmt.Sprintf("Title locked to %q.", title))
		},
	)
}

func (d *Dispatcher) cmdUnlockName(ctx context.Context, group domain.GroupID, _ []string) {
	if !d.registry.ClearLockedTitle(group) {
		d.reply(ctx, group, "No title lock set.")
		return
	}
	d.reply(ctx, group, "Title lock removed.")
}

func (d *Dispatcher) cmdLockNick(ctx context.Context, group domain.GroupID, args []string) {
	member := domain.MemberID(args[0])
	nick := strings.Join(args[1:], " ")
	d.registry.SetLockedNickname(group, member, nick)
	d.runner.Async(
		func() error { return d.session.SetNickname(ctx, nick, group, member) },
		func(err error) {
			if err != nil {
				d.reply(ctx, group, "Nickname locked, but setting it failed: "+err.Error())
				return
			}
			d.reply(ctx, group, fmt.Sprintf("Nickname for %s locked to %q.", member, nick))
		},
	)
}

func (d *Dispatcher) cmdUnlockNick(ctx context.Context, group domain.GroupID, args []string) {
	member := domain.MemberID(args[0])
	if !d.registry.ClearLockedNickname(group, member) {
		d.reply(ctx, group, fmt.Sprintf("No nickname lock set for %s.", member))
		return
	}
	d.reply(ctx, group, fmt.Sprintf("Nickname lock for %s removed.", member))
}

// cmdMsg is fire-and-forget: delivery success stays quiet, only failures
// come back into the chat.
func (d *Dispatcher) cmdMsg(ctx context.Context, group domain.GroupID, args []string) {
	member := domain.MemberID(args[0])
	if err := d.corpus.Load(); err != nil {
		d.log.Warn("using in-memory corpus for msg", "err", err)
	}
	out := domain.Outbound{
		Text: d.corpus.Random(),
		Mentions: []domain.Mention{
			{Member: member, DisplayTag: "@" + string(member)},
		},
	}
	d.runner.Async(
		func() error { return d.session.SendMessage(ctx, out, group) },
		func(err error) {
			if err != nil {
				d.reply(ctx, group, "Message delivery failed: "+err.Error())
			}
		},
	)
}

func (d *Dispatcher) cmdAddMsg(ctx context.Context, group domain.GroupID, args []string) {
	text := strings.Join(args, " ")
	d.corpus.Append(text)
	d.reply(ctx, group, fmt.Sprintf("Added message %d.", d.corpus.Len()))
}

func (d *Dispatcher) cmdDelMsg(ctx context.Context, group domain.GroupID, args []string) {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		d.reply(ctx, group, "Usage: "+d.registry.Prefix()+"delmsg <index>")
		return
	}
	removed, err := d.corpus.RemoveAt(index)
	if goerrors.Is(err, errors.ErrIndexOutOfRange) {
		d.reply(ctx, group, "Invalid index.")
		return
	}
	d.reply(ctx, group, fmt.Sprintf("Removed message %q.", removed))
}

func (d *Dispatcher) cmdListMsgs(ctx context.Context, group domain.GroupID, _ []string) {
	if err := d.corpus.Load(); err != nil {
		d.log.Warn("using in-memory corpus for listing", "err", err)
	}
	entries := d.corpus.Entries()
	if len(entries) == 0 {
		d.reply(ctx, group, "No messages.")
		return
	}
	var b strings.Builder
	b.WriteString("Messages:\n")
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entry)
	}
	d.reply(ctx, group, strings.TrimRight(b.String(), "\n"))
}

func (d *Dispatcher) cmdReloadMsgs(ctx context.Context, group domain.GroupID, _ []string) {
	if err := d.corpus.Load(); err != nil {
		d.reply(ctx, group, "Reload failed: "+err.Error())
		return
	}
	d.reply(ctx, group, fmt.Sprintf("Loaded %d messages.", d.corpus.Len()))
}

func (d *Dispatcher) cmdSetPrefix(ctx context.Context, group domain.GroupID, args []string) {
	d.registry.SetPrefix(args[0])
	d.reply(ctx, group, fmt.Sprintf("Prefix is now %q.", args[0]))
}

// cmdSetAdmin hands over control immediately: the new admin, not the
// issuer, is authorized from the next event onward.
func (d *Dispatcher) cmdSetAdmin(ctx context.Context, group domain.GroupID, args []string) {
	d.registry.SetAdmin(domain.MemberID(args[0]))
	d.reply(ctx, group, fmt.Sprintf("Admin is now %s.", args[0]))
}

func (d *Dispatcher) cmdListLocks(ctx context.Context, group domain.GroupID, _ []string) {
	var b strings.Builder
	if title, ok := d.registry.LockedTitle(group); ok {
		fmt.Fprintf(&b, "Title lock: %q\n", title)
	} else {
		b.WriteString("Title lock: none\n")
	}

	nicks := d.registry.NicknameLocks(group)
	if len(nicks) == 0 {
		b.WriteString("Nickname locks: none")
	} else {
		b.WriteString("Nickname locks:\n")
		members := make([]string, 0, len(nicks))
		for member := range nicks {
			members = append(members, string(member))
		}
		sort.Strings(members)
		for _, member := range members {
			fmt.Fprintf(&b, "%s: %q\n", member, nicks[domain.MemberID(member)])
		}
	}
	d.reply(ctx, group, strings.TrimRight(b.String(), "\n"))
}

func (d *Dispatcher) cmdUnlockAll(ctx context.Context, group domain.GroupID, _ []string) {
	removed := d.registry.ClearAllLocks(group)
	if removed == 0 {
		d.reply(ctx, group, "No locks set.")
		return
	}
	d.reply(ctx, group, fmt.Sprintf("Removed %d locks.", removed))
}

func (d *Dispatcher) replyUnknown(ctx context.Context, group domain.GroupID) {
	prefix := d.registry.Prefix()
	d.reply(ctx, group, "Unknown command. Try "+prefix+"help.")
}

// reply sends a message back to the originating group off the timeline; a
// failed reply is only worth a log line.
func (d *Dispatcher) reply(ctx context.Context, group domain.GroupID, text string) {
	d.runner.Async(
		func() error { return d.session.SendMessage(ctx, domain.Outbound{Text: text}, group) },
		func(err error) {
			if err != nil {
				d.log.Error("reply delivery failed", "group", group, "err", err)
			}
		},
	)
}
