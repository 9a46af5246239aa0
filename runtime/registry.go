// Package runtime owns the guard's event timeline: the lock registry and
// corpus state, the command dispatcher, and the reconciliation loop.
// It orchestrates the system without containing transport or storage logic.
package runtime

import (
	"log/slog"

	"groupguard/domain"
	"groupguard/repositories"
)

// LockRegistry is the in-memory authority on what is locked, backed by a
// single durable record. Every mutation flushes the full record; a flush
// failure is logged and swallowed, the in-memory state stays authoritative
// for the running process.
//
// The registry is only ever touched from the engine's event timeline, so it
// carries no lock of its own.
type LockRegistry struct {
	log       *slog.Logger
	repo      repositories.ILockRepository
	titles    map[domain.GroupID]string
	nicknames map[domain.GroupID]map[domain.MemberID]string
	admin     domain.MemberID
	prefix    string
}

// LoadLockRegistry reads the persisted record, falling back to the supplied
// defaults when nothing has been written yet. An unreadable record is a
// startup failure; after startup the registry never fails its caller.
func LoadLockRegistry(log *slog.Logger, repo repositories.ILockRepository,
	defaultAdmin domain.MemberID, defaultPrefix string) (*LockRegistry, error) {

	r := &LockRegistry{
		log:       log,
		repo:      repo,
		titles:    make(map[domain.GroupID]string),
		nicknames: make(map[domain.GroupID]map[domain.MemberID]string),
		admin:     defaultAdmin,
		prefix:    defaultPrefix,
	}

	record, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return r, nil
	}

	for group, title := range record.Titles {
		r.titles[domain.GroupID(group)] = title
	}
	for group, nicks := range record.Nicknames {
		if len(nicks) == 0 {
			continue
		}
		inner := make(map[domain.MemberID]string, len(nicks))
		for member, nick := range nicks {
			inner[domain.MemberID(member)] = nick
		}
		r.nicknames[domain.GroupID(group)] = inner
	}
	if record.Admin != "" {
		r.admin = domain.MemberID(record.Admin)
	}
	if record.Prefix != "" {
		r.prefix = record.Prefix
	}
	return r, nil
}

func (r *LockRegistry) LockedTitle(group domain.GroupID) (string, bool) {
	title, ok := r.titles[group]
	return title, ok
}

func (r *LockRegistry) SetLockedTitle(group domain.GroupID, title string) {
	r.titles[group] = title
	r.flush()
}

// ClearLockedTitle reports whether a lock was actually removed; clearing an
// absent lock is a no-op and does not flush.
func (r *LockRegistry) ClearLockedTitle(group domain.GroupID) bool {
	if _, ok := r.titles[group]; !ok {
		return false
	}
	delete(r.titles, group)
	r.flush()
	return true
}

func (r *LockRegistry) LockedNickname(group domain.GroupID, member domain.MemberID) (string, bool) {
	nick, ok := r.nicknames[group][member]
	return nick, ok
}

func (r *LockRegistry) SetLockedNickname(group domain.GroupID, member domain.MemberID, nick string) {
	if _, ok := r.nicknames[group]; !ok {
		r.nicknames[group] = make(map[domain.MemberID]string)
	}
	r.nicknames[group][member] = nick
	r.flush()
}

func (r *LockRegistry) ClearLockedNickname(group domain.GroupID, member domain.MemberID) bool {
	members, ok := r.nicknames[group]
	if !ok {
		return false
	}
	if _, ok := members[member]; !ok {
		return false
	}
	delete(members, member)

	// Never keep an empty inner map around, neither in memory nor on disk.
	if len(members) == 0 {
		delete(r.nicknames, group)
	}
	r.flush()
	return true
}

// NicknameLocks returns a copy of the nickname-lock table for a group.
func (r *LockRegistry) NicknameLocks(group domain.GroupID) map[domain.MemberID]string {
	members, ok := r.nicknames[group]
	if !ok {
		return nil
	}
	out := make(map[domain.MemberID]string, len(members))
	for member, nick := range members {
		out[member] = nick
	}
	return out
}

// ClearAllLocks removes the title lock and every nickname lock for a group,
// returning how many locks were dropped. Zero removals do not flush.
func (r *LockRegistry) ClearAllLocks(group domain.GroupID) int {
	removed := 0
	if _, ok := r.titles[group]; ok {
		delete(r.titles, group)
		removed++
	}
	if members, ok := r.nicknames[group]; ok {
		removed += len(members)
		delete(r.nicknames, group)
	}
	if removed > 0 {
		r.flush()
	}
	return removed
}

func (r *LockRegistry) Admin() domain.MemberID {
	return r.admin
}

func (r *LockRegistry) SetAdmin(admin domain.MemberID) {
	r.admin = admin
	r.flush()
}

func (r *LockRegistry) Prefix() string {
	return r.prefix
}

func (r *LockRegistry) SetPrefix(prefix string) {
	r.prefix = prefix
	r.flush()
}

func (r *LockRegistry) flush() {
	if err := r.repo.Save(r.snapshot()); err != nil {
		r.log.Error("lock registry flush failed, in-memory state kept", "err", err)
	}
}

func (r *LockRegistry) snapshot() repositories.LockRecord {
	record := repositories.LockRecord{
		Titles:    make(map[string]string, len(r.titles)),
		Nicknames: make(map[string]map[string]string, len(r.nicknames)),
		Admin:     string(r.admin),
		Prefix:    r.prefix,
	}
	for group, title := range r.titles {
		record.Titles[string(group)] = title
	}
	for group, members := range r.nicknames {
		inner := make(map[string]string, len(members))
		for member, nick := range members {
			inner[string(member)] = nick
		}
		record.Nicknames[string(group)] = inner
	}
	return record
}
