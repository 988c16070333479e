package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/persist"
	"studio/internal/poller"
	"studio/internal/providers"
)

// memStore keeps uploads in memory and signs deterministic fake URLs.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failAt  string // substring of key that triggers an upload failure
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt != "" && strings.Contains(key, s.failAt) {
		return "", errors.New("disk full")
	}
	s.objects[key] = data
	return key, nil
}

func (s *memStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type resultRepoStub struct {
	created []*domain.ResultRecord
}

func (s *resultRepoStub) Create(ctx context.Context, rec *domain.ResultRecord) error {
	s.created = append(s.created, rec)
	return nil
}

func (s *resultRepoStub) GetByID(ctx context.Context, ownerID, id string) (*domain.ResultRecord, error) {
	return nil, domain.ErrNotFound
}

func (s *resultRepoStub) ListByOwner(ctx context.Context, ownerID, contentType string, limit, offset int) ([]domain.ResultRecord, error) {
	return nil, nil
}

type libraryRepoStub struct {
	added []*domain.LibraryEntry
	err   error
}

func (s *libraryRepoStub) Add(ctx context.Context, entry *domain.LibraryEntry) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, entry)
	return nil
}

func (s *libraryRepoStub) ListByOwner(ctx context.Context, ownerID, contentType string) ([]domain.LibraryEntry, error) {
	return nil, nil
}

type generatorStub struct{ code string }

func (g generatorStub) GenerateChartCode(ctx context.Context, prompt string, dataFile *domain.Upload) (string, error) {
	return g.code, nil
}

type executorStub struct {
	image []byte
	got   string
}

func (e *executorStub) Execute(ctx context.Context, code string, dataFile *domain.Upload) ([]byte, error) {
	e.got = code
	return e.image, nil
}

type submitterStub struct {
	handle *domain.JobHandle
	err    error
}

func (s submitterStub) Submit(ctx context.Context, prompt string, opts providers.Options) (*domain.JobHandle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.handle, nil
}

type downloaderStub struct{ data []byte }

func (d downloaderStub) Download(ctx context.Context, url string) ([]byte, string, error) {
	return d.data, "image/png", nil
}

func newShared(store *memStore, results *resultRepoStub, library *libraryRepoStub) Shared {
	return Shared{
		Store:       store,
		Coordinator: persist.NewCoordinator(results, library, zerolog.Nop()),
		Logger:      zerolog.Nop(),
	}
}

func chartSpec() domain.GenerationSpec {
	return domain.GenerationSpec{
		OwnerID:   "u1",
		Title:     "Q3 Revenue",
		Prompt:    "quarterly revenue by region",
		ChartType: "bar",
		DataFile: &domain.Upload{
			Name:        "sales.csv",
			ContentType: "text/csv",
			Data:        []byte("region,revenue\nEMEA,10\n"),
		},
	}
}

func TestChartRunHappyPath(t *testing.T) {
	store := newMemStore()
	results := &resultRepoStub{}
	library := &libraryRepoStub{}
	p := &Charts{
		Shared:    newShared(store, results, library),
		Generator: generatorStub{code: "df = pd.read_excel('/mnt/data/upload.csv')\nplt.savefig('out.png')"},
		Executor:  &executorStub{image: []byte("raw-png")},
		Enhancer: submitterStub{handle: &domain.JobHandle{
			Provider:  domain.ProviderSynchronous,
			State:     domain.JobStateSucceeded,
			ResultRef: "https://provider.example.com/enhanced.png",
		}},
		Download: downloaderStub{data: []byte("enhanced-png")},
	}

	rec, err := p.Run(context.Background(), chartSpec())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// generated code had its loader repaired before execution
	exec := p.Executor.(*executorStub)
	if !strings.Contains(exec.got, "pd.read_csv('/mnt/data/sales.csv')") {
		t.Errorf("executed code not repaired: %q", exec.got)
	}
	if len(results.created) != 1 || len(library.added) != 1 {
		t.Fatalf("records=%d library=%d, want 1 and 1", len(results.created), len(library.added))
	}
	// only the enhanced artifact is surfaced
	if len(rec.DisplayURLs) != 1 {
		t.Fatalf("display urls = %v, want exactly one", rec.DisplayURLs)
	}
	if !strings.Contains(rec.DisplayURLs[0], "/generated/") {
		t.Errorf("display url should point at the enhanced artifact: %q", rec.DisplayURLs[0])
	}
	var rawPaths int
	for _, path := range rec.StoragePaths {
		if strings.Contains(path, "/raw/") {
			rawPaths++
		}
	}
	if rawPaths == 0 {
		t.Error("raw artifacts should keep their storage paths on the record")
	}
	for _, url := range rec.DisplayURLs {
		if strings.Contains(url, "/raw/") {
			t.Errorf("raw artifact leaked into display urls: %q", url)
		}
	}
}

func TestChartRunEnhancementFailureIsHard(t *testing.T) {
	store := newMemStore()
	results := &resultRepoStub{}
	p := &Charts{
		Shared:    newShared(store, results, &libraryRepoStub{}),
		Generator: generatorStub{code: "plt.savefig('out.png')"},
		Executor:  &executorStub{image: []byte("raw-png")},
		Enhancer:  submitterStub{err: domain.Errorf(domain.ErrKindProviderSubmission, "enhancer down")},
		Download:  downloaderStub{},
	}

	_, err := p.Run(context.Background(), chartSpec())
	if err == nil {
		t.Fatal("expected hard failure when enhancement fails")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindProviderSubmission {
		t.Errorf("error kind = %q", kind)
	}
	if len(results.created) != 0 {
		t.Error("no record should exist after a failed enhancement")
	}
	// the raw render was already persisted before the failure
	var rawStored bool
	for key := range store.objects {
		if strings.Contains(key, "/raw/") {
			rawStored = true
		}
	}
	if !rawStored {
		t.Error("raw artifact should have been stored before the enhancement step")
	}
}

func TestChartRunToleratesLibraryFailure(t *testing.T) {
	results := &resultRepoStub{}
	library := &libraryRepoStub{err: errors.New("index offline")}
	p := &Charts{
		Shared:    newShared(newMemStore(), results, library),
		Generator: generatorStub{code: "plt.savefig('out.png')"},
		Executor:  &executorStub{image: []byte("raw-png")},
		Enhancer: submitterStub{handle: &domain.JobHandle{
			State:     domain.JobStateSucceeded,
			ResultRef: "https://provider.example.com/enhanced.png",
		}},
		Download: downloaderStub{data: []byte("enhanced-png")},
	}

	rec, err := p.Run(context.Background(), chartSpec())
	if err != nil {
		t.Fatalf("Run should tolerate library failure, got %v", err)
	}
	if rec.Status != StatusCompleted {
		t.Errorf("status = %q", rec.Status)
	}
	if len(results.created) != 1 {
		t.Error("primary record missing")
	}
}

func TestChartRunStorageFailureAborts(t *testing.T) {
	store := newMemStore()
	store.failAt = "/raw/"
	results := &resultRepoStub{}
	p := &Charts{
		Shared:    newShared(store, results, &libraryRepoStub{}),
		Generator: generatorStub{code: "plt.savefig('out.png')"},
		Executor:  &executorStub{image: []byte("raw-png")},
		Enhancer:  submitterStub{},
		Download:  downloaderStub{},
	}

	_, err := p.Run(context.Background(), chartSpec())
	if err == nil {
		t.Fatal("expected storage write failure")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindStorageWrite {
		t.Errorf("error kind = %q, want storage write", kind)
	}
	if len(results.created) != 0 {
		t.Error("no record should exist after a storage failure")
	}
}

func TestImagesRunQuantity(t *testing.T) {
	results := &resultRepoStub{}
	p := &Images{
		Shared: newShared(newMemStore(), results, &libraryRepoStub{}),
		Provider: submitterStub{handle: &domain.JobHandle{
			State:     domain.JobStateSucceeded,
			ResultRef: "https://provider.example.com/img.png",
		}},
		Download: downloaderStub{data: []byte("png")},
	}
	spec := domain.GenerationSpec{OwnerID: "u1", Title: "Poster", Prompt: "a poster", Quantity: 3}

	rec, err := p.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.DisplayURLs) != 3 {
		t.Errorf("display urls = %d, want 3", len(rec.DisplayURLs))
	}
	if len(results.created) != 1 {
		t.Errorf("records = %d, want 1", len(results.created))
	}
}

func TestVideosRunSuccess(t *testing.T) {
	results := &resultRepoStub{}
	calls := 0
	status := func(ctx context.Context, taskID string) (providers.TaskStatus, error) {
		calls++
		if calls < 2 {
			return providers.TaskStatus{State: providers.TaskProcessing}, nil
		}
		return providers.TaskStatus{State: providers.TaskSucceeded, ResultRef: "https://provider.example.com/v.mp4"}, nil
	}
	p := &Videos{
		Shared: newShared(newMemStore(), results, &libraryRepoStub{}),
		Provider: submitterStub{handle: &domain.JobHandle{
			Provider: domain.ProviderAsyncTask,
			TaskID:   "t1",
			State:    domain.JobStateSubmitted,
		}},
		Status:   status,
		Download: downloaderStub{data: []byte("mp4")},
		Poller:   poller.New(time.Millisecond, time.Second, zerolog.Nop()),
	}
	spec := domain.GenerationSpec{OwnerID: "u1", Title: "Launch", Prompt: "a launch video"}

	rec, err := p.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Metadata["task_id"] != "t1" {
		t.Errorf("metadata = %v", rec.Metadata)
	}
	if len(results.created) != 1 {
		t.Errorf("records = %d, want 1", len(results.created))
	}
}

func TestVideosRunTimeoutLeavesNoRecord(t *testing.T) {
	results := &resultRepoStub{}
	status := func(ctx context.Context, taskID string) (providers.TaskStatus, error) {
		return providers.TaskStatus{State: providers.TaskProcessing}, nil
	}
	p := &Videos{
		Shared: newShared(newMemStore(), results, &libraryRepoStub{}),
		Provider: submitterStub{handle: &domain.JobHandle{
			Provider: domain.ProviderAsyncTask,
			TaskID:   "t1",
			State:    domain.JobStateSubmitted,
		}},
		Status:   status,
		Download: downloaderStub{},
		Poller:   poller.New(5*time.Millisecond, 25*time.Millisecond, zerolog.Nop()),
	}

	_, err := p.Run(context.Background(), domain.GenerationSpec{OwnerID: "u1", Title: "Launch", Prompt: "x"})
	if err == nil {
		t.Fatal("expected timeout")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindPollTimeout {
		t.Errorf("error kind = %q, want poll timeout", kind)
	}
	if len(results.created) != 0 {
		t.Error("timed-out job must not be recorded")
	}
}

func TestVideosRunPolicyViolationDistinct(t *testing.T) {
	results := &resultRepoStub{}
	status := func(ctx context.Context, taskID string) (providers.TaskStatus, error) {
		return providers.TaskStatus{State: providers.TaskPolicyViolation, Message: "unsafe content"}, nil
	}
	p := &Videos{
		Shared: newShared(newMemStore(), results, &libraryRepoStub{}),
		Provider: submitterStub{handle: &domain.JobHandle{
			Provider: domain.ProviderAsyncTask,
			TaskID:   "t1",
			State:    domain.JobStateSubmitted,
		}},
		Status:   status,
		Download: downloaderStub{},
		Poller:   poller.New(time.Millisecond, time.Second, zerolog.Nop()),
	}

	_, err := p.Run(context.Background(), domain.GenerationSpec{OwnerID: "u1", Title: "Launch", Prompt: "x"})
	if err == nil {
		t.Fatal("expected policy violation")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindContentPolicy {
		t.Errorf("error kind = %q, want content policy", kind)
	}
	if len(results.created) != 0 {
		t.Error("rejected job must not be recorded")
	}
}
