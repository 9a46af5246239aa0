// Package domain contains core concepts of the guard.
// No runtime, network, or UI logic should be added here.
package domain

// Mention tags a member inside an outbound message so the platform renders
// a structured mention rather than plain text.
type Mention struct {
	Member     MemberID
	DisplayTag string
}

// Outbound is the payload of a message we send to a group.
type Outbound struct {
	Text     string
	Mentions []Mention
}
