package runtime

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"groupguard/domain"
)

func newTestRegistry(t *testing.T, repo *fakeLockRepo) *LockRegistry {
	t.Helper()
	registry, err := LoadLockRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), repo, "admin-1", "!")
	require.NoError(t, err)
	return registry
}

func TestLockRegistry_Defaults_When_Nothing_Persisted(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t, &fakeLockRepo{})

	req.Equal(domain.MemberID("admin-1"), registry.Admin())
	req.Equal("!", registry.Prefix())

	_, locked := registry.LockedTitle("G1")
	req.False(locked)
}

func TestLockRegistry_Title_Lock_Roundtrip(t *testing.T) {
	req := require.New(t)
	repo := &fakeLockRepo{}
	registry := newTestRegistry(t, repo)

	// When a title lock is set
	registry.SetLockedTitle("G1", "Team Alpha")

	// Then it reads back and was flushed
	title, locked := registry.LockedTitle("G1")
	req.True(locked)
	req.Equal("Team Alpha", title)
	req.Equal(1, repo.saves)

	// And it survives a reload from the persisted record
	reloaded := newTestRegistry(t, repo)
	title, locked = reloaded.LockedTitle("G1")
	req.True(locked)
	req.Equal("Team Alpha", title)
}

func TestLockRegistry_Clear_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repo := &fakeLockRepo{}
	registry := newTestRegistry(t, repo)

	registry.SetLockedTitle("G1", "Team Alpha")
	req.True(registry.ClearLockedTitle("G1"))

	// Clearing again removes nothing and does not flush
	flushes := repo.saves
	req.False(registry.ClearLockedTitle("G1"))
	req.Equal(flushes, repo.saves)
}

func TestLockRegistry_Nickname_Inner_Map_Removed_On_Last_Entry(t *testing.T) {
	req := require.New(t)
	repo := &fakeLockRepo{}
	registry := newTestRegistry(t, repo)

	registry.SetLockedNickname("G1", "42", "Bob")
	registry.SetLockedNickname("G1", "43", "Carol")

	req.True(registry.ClearLockedNickname("G1", "42"))
	req.True(registry.ClearLockedNickname("G1", "43"))

	// The persisted record must not carry an empty inner mapping
	req.Empty(repo.record.Nicknames)
	req.Nil(registry.NicknameLocks("G1"))
}

func TestLockRegistry_ClearAllLocks(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t, &fakeLockRepo{})

	registry.SetLockedTitle("G1", "Team Alpha")
	registry.SetLockedNickname("G1", "42", "Bob")
	registry.SetLockedNickname("G2", "99", "Dave")

	req.Equal(2, registry.ClearAllLocks("G1"))
	req.Equal(0, registry.ClearAllLocks("G1"))

	// Other groups are untouched
	nick, locked := registry.LockedNickname("G2", "99")
	req.True(locked)
	req.Equal("Dave", nick)
}

func TestLockRegistry_Flush_Failure_Keeps_Memory_Authoritative(t *testing.T) {
	req := require.New(t)
	repo := &fakeLockRepo{saveErr: fmt.Errorf("disk gone")}
	registry := newTestRegistry(t, repo)

	registry.SetLockedTitle("G1", "Team Alpha")

	title, locked := registry.LockedTitle("G1")
	req.True(locked)
	req.Equal("Team Alpha", title)
	req.Nil(repo.record)
}

func TestLockRegistry_Admin_And_Prefix_Persisted(t *testing.T) {
	req := require.New(t)
	repo := &fakeLockRepo{}
	registry := newTestRegistry(t, repo)

	registry.SetAdmin("admin-2")
	registry.SetPrefix("#")

	reloaded := newTestRegistry(t, repo)
	req.Equal(domain.MemberID("admin-2"), reloaded.Admin())
	req.Equal("#", reloaded.Prefix())
}
