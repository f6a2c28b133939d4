package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/repository"
	"github.com/aryan0dhankhar/outreach/internal/security"
	"github.com/aryan0dhankhar/outreach/internal/security/audit"
	"github.com/aryan0dhankhar/outreach/pkg/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	contractors   *repository.MemoryContractorRepository
	members       *repository.MemoryMemberRepository
	activity      *repository.MemoryActivityRepository
	notifications *repository.MemoryNotificationRepository

	recorder *ActivityRecorder
	notify   *NotificationService
	imports  *ImportService
	service  *ContractorService
	archive  *fakeArchive

	imane, younes *domain.Member
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := quietLogger()
	f := &fixture{
		contractors:   repository.NewMemoryContractorRepository(),
		members:       repository.NewMemoryMemberRepository(),
		activity:      repository.NewMemoryActivityRepository(),
		notifications: repository.NewMemoryNotificationRepository(),
		archive:       &fakeArchive{},
	}

	ctx := context.Background()
	f.imane = &domain.Member{Name: "Imane", IsActive: true}
	f.younes = &domain.Member{Name: "Younes", IsActive: true}
	for _, m := range []*domain.Member{f.imane, f.younes} {
		if err := f.members.Upsert(ctx, m); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	policy := security.NewPolicy(repository.NewMemberDirectory(f.members, nil, 0, log), log)
	f.recorder = NewActivityRecorder(f.activity, config.ActivityLogBestEffort, log)
	f.notify = NewNotificationService(f.notifications, log)
	f.imports = NewImportService(f.contractors, f.recorder, f.notify, log)
	f.service = NewContractorService(f.contractors, f.members, policy, f.recorder, f.notify, f.archive, audit.NewLogger(log), log)
	return f
}

func (f *fixture) logs(t *testing.T) []*domain.ActivityLogEntry {
	t.Helper()
	entries, err := f.activity.List(context.Background(), domain.ActivityQuery{})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	return entries
}

func (f *fixture) seedContractor(t *testing.T, c *domain.Contractor) *domain.Contractor {
	t.Helper()
	if err := f.contractors.Create(context.Background(), c); err != nil {
		t.Fatalf("seed contractor: %v", err)
	}
	return c
}

var admin = security.CallerIdentity{Actor: domain.AdminActor}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (a *fakeArchive) Put(_ context.Context, objectName string, _ []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("bucket unavailable")
	}
	a.keys = append(a.keys, objectName)
	return nil
}

// failingActivity fails the first n appends
type failingActivity struct {
	*repository.MemoryActivityRepository
	failures int
	calls    int
}

func (f *failingActivity) Append(ctx context.Context, e *domain.ActivityLogEntry) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("activity store unavailable")
	}
	return f.MemoryActivityRepository.Append(ctx, e)
}
