package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/templui/claimguard/internal/db"
	"github.com/templui/claimguard/internal/inference"
	"github.com/templui/claimguard/internal/model"
	"github.com/templui/claimguard/internal/repository"
	"github.com/templui/claimguard/internal/storage"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init(ctx, "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(ctx, database.DB, "sqlite"))
	return repository.NewStore(database)
}

func newTestStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	require.NoError(t, err)
	return s
}

func createUser(t *testing.T, store *repository.Store, name, role string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     uuid.New().String()[:8] + "@example.com",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

// fakeAnalyzer returns a fixed result and records what it was given.
type fakeAnalyzer struct {
	mu     sync.Mutex
	result inference.Result
	err    error
	panic  bool
	calls  int
	images [][]byte
	// byImage overrides the result for specific payloads
	byImage map[string]inference.Result
	failOn  map[string]bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, image []byte) (inference.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.images = append(f.images, image)
	if f.panic {
		panic("model crashed")
	}
	if f.failOn[string(image)] {
		return inference.Result{}, inference.ErrDecode
	}
	if r, ok := f.byImage[string(image)]; ok {
		return r, nil
	}
	return f.result, f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	claims []*model.Claim
	to     []*model.User
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, claimant *model.User, claim *model.Claim) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.claims = append(n.claims, claim)
	n.to = append(n.to, claimant)
	return nil
}

// steppingClock returns times one second apart.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
