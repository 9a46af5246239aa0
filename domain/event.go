package domain

// GroupID identifies a chat conversation; it is the scoping unit for locks.
type GroupID string

// MemberID identifies a participant within a group.
type MemberID string

// InboundEvent is anything the gateway pushes at us: either a message that
// may be a command, or a notification that a guarded attribute changed.
type InboundEvent interface {
	Group() GroupID
}

// CommandCandidate is a posted message. Whether it actually is a command is
// the dispatcher's call (admin + prefix gate).
type CommandCandidate struct {
	Sender MemberID
	Room   GroupID
	Text   string
}

func (c CommandCandidate) Group() GroupID {
	return c.Room
}

// TitleChanged reports that someone changed the group title. The new value
// is deliberately not carried: reconciliation reasserts the stored one.
type TitleChanged struct {
	Room GroupID
}

func (t TitleChanged) Group() GroupID {
	return t.Room
}

// NicknameChanged reports that a member's display nickname changed.
type NicknameChanged struct {
	Room   GroupID
	Member MemberID
}

func (n NicknameChanged) Group() GroupID {
	return n.Room
}
