package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reviewant/internal/config"
	"reviewant/internal/database"
	"reviewant/internal/db"
	"reviewant/internal/domain"
	"reviewant/internal/repository"

	"github.com/rs/zerolog"
)

var t0 = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func mustIdentity(s string) domain.Identity {
	id, err := domain.ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

func newQueries(t *testing.T) *db.Queries {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDSN = filepath.Join(t.TempDir(), "service.db")
	sqlDB, err := database.New(&cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db.New(sqlDB)
}

// failingPlayers wraps a PlayerStore and refuses to create the listed names.
type failingPlayers struct {
	PlayerStore
	fail map[string]bool
}

func (f failingPlayers) CreateIfAbsent(ctx context.Context, id domain.Identity, now time.Time) (*domain.Player, bool, error) {
	if f.fail[id.String()] {
		return nil, false, fmt.Errorf("create player: %w: disk I/O error", domain.ErrPersistence)
	}
	return f.PlayerStore.CreateIfAbsent(ctx, id, now)
}

type fetcherFunc func(ctx context.Context, id domain.Identity) ([]domain.NormalizedMatch, error)

func (f fetcherFunc) FetchMatches(ctx context.Context, id domain.Identity) ([]domain.NormalizedMatch, error) {
	return f(ctx, id)
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Get(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
	}
	return &u, nil
}

func (m *memUsers) UpdateUsername(_ context.Context, id, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("update username: %w", domain.ErrNotFound)
	}
	u.Username = username
	m.users[id] = u
	return nil
}

type recordingAnnouncer struct {
	mu    sync.Mutex
	texts []string
}

func (a *recordingAnnouncer) Announce(_ context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
	return nil
}

func sqliteStores(t *testing.T) (*repository.PlayerRepository, *repository.ReviewRepository, *repository.UserRepository) {
	q := newQueries(t)
	return repository.NewPlayerRepository(q, zerolog.Nop()),
		repository.NewReviewRepository(q, zerolog.Nop()),
		repository.NewUserRepository(q, zerolog.Nop())
}

func match(id string, players ...string) domain.NormalizedMatch {
	m := domain.NormalizedMatch{MatchID: id, Map: "Bind", MyTeam: domain.TeamRed}
	for _, p := range players {
		name, team, _ := strings.Cut(p, "@")
		who := mustIdentity(name)
		m.Players = append(m.Players, domain.PlayerMatchEntry{
			Name: who.Name, Tag: who.Tag, PlayerName: who.String(), Team: domain.Team(team),
		})
	}
	return m
}
