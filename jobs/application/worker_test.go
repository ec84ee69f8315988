package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	contentDomain "github.com/blogsmith/blogsmith/content/domain"
	jobsDomain "github.com/blogsmith/blogsmith/jobs/domain"
	schedApp "github.com/blogsmith/blogsmith/scheduler/application"
	schedDomain "github.com/blogsmith/blogsmith/scheduler/domain"
)

// --- fakes ---

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*jobsDomain.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*jobsDomain.Job{}}
}

func (r *fakeJobRepo) Create(_ context.Context, job *jobsDomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) Update(_ context.Context, job *jobsDomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id string) (*jobsDomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, jobsDomain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) ListByUser(_ context.Context, userID string, limit int) ([]*jobsDomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*jobsDomain.Job
	for _, job := range r.jobs {
		if job.UserID == userID {
			copied := *job
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeJobRepo) status(t *testing.T, id string) jobsDomain.JobStatus {
	t.Helper()
	job, err := r.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("job %s not found", id)
	}
	return job.Status
}

type stubClientRepo struct {
	user   *clientsDomain.User
	target *clientsDomain.PublishingTarget
	sub    *clientsDomain.Subscription
}

func (r *stubClientRepo) GetUser(_ context.Context, _ string) (*clientsDomain.User, error) {
	if r.user == nil {
		return nil, clientsDomain.ErrUserNotFound
	}
	return r.user, nil
}

func (r *stubClientRepo) GetPublishingTarget(_ context.Context, _ string) (*clientsDomain.PublishingTarget, error) {
	if r.target == nil {
		return nil, clientsDomain.ErrTargetNotFound
	}
	return r.target, nil
}

func (r *stubClientRepo) GetActiveSubscription(_ context.Context, _ string) (*clientsDomain.Subscription, error) {
	if r.sub == nil {
		return nil, clientsDomain.ErrSubscriptionNotFound
	}
	return r.sub, nil
}

func (r *stubClientRepo) ListSchedulingCandidates(_ context.Context) ([]clientsDomain.SchedulingCandidate, error) {
	return nil, nil
}

type memPostRepo struct {
	mu     sync.Mutex
	posts  map[string]*contentDomain.Post
	nextID int
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: map[string]*contentDomain.Post{}}
}

func (r *memPostRepo) Create(_ context.Context, post *contentDomain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = fmt.Sprintf("post-%d", r.nextID)
	copied := *post
	r.posts[post.ID] = &copied
	return nil
}

func (r *memPostRepo) Update(_ context.Context, post *contentDomain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return contentDomain.ErrPostNotFound
	}
	copied := *post
	r.posts[post.ID] = &copied
	return nil
}

func (r *memPostRepo) GetByID(_ context.Context, id string) (*contentDomain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, contentDomain.ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

func (r *memPostRepo) FindByUserAndScheduledFor(_ context.Context, _ string, _ time.Time) (*contentDomain.Post, error) {
	return nil, contentDomain.ErrPostNotFound
}

func (r *memPostRepo) ListRecentPublished(_ context.Context, _ string, _ int) ([]*contentDomain.Post, error) {
	return nil, nil
}

func (r *memPostRepo) CountByUser(_ context.Context, _ string) (int, error) {
	return len(r.posts), nil
}

type memKeywordRepo struct{}

func (memKeywordRepo) Attach(_ context.Context, _, _ string) error { return nil }
func (memKeywordRepo) ListByPost(_ context.Context, _ string) ([]*contentDomain.Keyword, error) {
	return nil, nil
}
func (memKeywordRepo) GetByName(_ context.Context, _ string) (*contentDomain.Keyword, error) {
	return nil, contentDomain.ErrKeywordNotFound
}

type stubGenerator struct {
	mu    sync.Mutex
	fails int // fail this many calls before succeeding
	calls int
}

func (g *stubGenerator) GenerateContent(_ context.Context, _ clientsDomain.PublishingTarget, _ clientsDomain.PlanTier, _ []string, _ []*contentDomain.Post) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.fails {
		return "", errors.New("model overloaded")
	}
	return "generated body", nil
}

func (g *stubGenerator) GenerateTitle(_ context.Context, _ string, _ clientsDomain.PlanTier) (string, error) {
	return "Generated Title", nil
}

type stubPublisher struct{ err error }

func (p *stubPublisher) Publish(_ context.Context, _ schedDomain.PublishParams) (*schedDomain.RemotePost, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &schedDomain.RemotePost{ID: 1, URL: "https://example.com/?p=1"}, nil
}

func (p *stubPublisher) Update(_ context.Context, _ int64, _ schedDomain.UpdateParams) (*schedDomain.RemotePost, error) {
	return nil, p.err
}

// --- helpers ---

func testClients() *stubClientRepo {
	return &stubClientRepo{
		user: &clientsDomain.User{ID: "user-1", Email: "user@example.com"},
		target: &clientsDomain.PublishingTarget{
			UserID:      "user-1",
			SiteURL:     "https://example.com",
			Username:    "editor",
			AppPassword: "secret",
		},
		sub: &clientsDomain.Subscription{
			UserID: "user-1",
			Plan:   clientsDomain.PlanGrowth,
			Status: clientsDomain.SubscriptionActive,
		},
	}
}

func newTestWorker(clients clientsDomain.IClientRepository, posts contentDomain.IPostRepository, gen schedDomain.IContentGenerator, pub schedDomain.IPublisher, cfg WorkerConfig) (*Worker, *fakeJobRepo) {
	processor := schedApp.NewSlotProcessor(
		posts,
		memKeywordRepo{},
		gen,
		func(_ clientsDomain.PublishingTarget) schedDomain.IPublisher { return pub },
		nil,
		schedApp.ProcessorConfig{DefaultKeywords: []string{"marketing"}},
	)
	repo := newFakeJobRepo()
	worker := NewWorker(repo, NewHandlers(clients, posts, processor), cfg)
	return worker, repo
}

func waitForStatus(t *testing.T, repo *fakeJobRepo, id string, want jobsDomain.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if repo.status(t, id) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s, last status %s", id, want, repo.status(t, id))
}

// --- tests ---

func TestWorkerCompletesGenerateJob(t *testing.T) {
	posts := newMemPostRepo()
	worker, repo := newTestWorker(testClients(), posts, &stubGenerator{}, &stubPublisher{}, WorkerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Stop()

	job := &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobGeneratePost, UserID: "user-1"}
	if err := worker.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForStatus(t, repo, "job-1", jobsDomain.JobCompleted)

	stored, _ := repo.GetByID(ctx, "job-1")
	if stored.PostID == "" {
		t.Fatal("completed generate job must record the created post id")
	}
	post, err := posts.GetByID(ctx, stored.PostID)
	if err != nil {
		t.Fatalf("generated post missing: %v", err)
	}
	if post.Status != contentDomain.PostStatusDraft {
		t.Fatalf("on-demand generation must produce a draft, got %s", post.Status)
	}
}

func TestWorkerRetriesThenSucceeds(t *testing.T) {
	posts := newMemPostRepo()
	gen := &stubGenerator{fails: 1}
	worker, repo := newTestWorker(testClients(), posts, gen, &stubPublisher{}, WorkerConfig{
		MaxAttempts: 3,
		RetryDelay:  5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Stop()

	job := &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobGeneratePost, UserID: "user-1"}
	if err := worker.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForStatus(t, repo, "job-1", jobsDomain.JobCompleted)

	stored, _ := repo.GetByID(ctx, "job-1")
	if stored.Attempts != 2 {
		t.Fatalf("expected success on the second attempt, got %d", stored.Attempts)
	}
	if stored.LastError != "" {
		t.Fatalf("a completed job must have its error cleared, got %q", stored.LastError)
	}
}

func TestWorkerFailsJobAfterMaxAttempts(t *testing.T) {
	gen := &stubGenerator{fails: 100}
	worker, repo := newTestWorker(testClients(), newMemPostRepo(), gen, &stubPublisher{}, WorkerConfig{
		MaxAttempts: 2,
		RetryDelay:  5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)
	defer worker.Stop()

	job := &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobGeneratePost, UserID: "user-1"}
	if err := worker.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForStatus(t, repo, "job-1", jobsDomain.JobFailed)

	stored, _ := repo.GetByID(ctx, "job-1")
	if stored.Attempts != 2 {
		t.Fatalf("expected exactly MaxAttempts attempts, got %d", stored.Attempts)
	}
	if stored.LastError == "" {
		t.Fatal("a failed job must keep its last error")
	}
}

func TestHandlePublishValidatesOwnership(t *testing.T) {
	posts := newMemPostRepo()
	post := &contentDomain.Post{UserID: "someone-else", Title: "t", Body: "b", Status: contentDomain.PostStatusDraft}
	_ = posts.Create(context.Background(), post)

	worker, _ := newTestWorker(testClients(), posts, &stubGenerator{}, &stubPublisher{}, WorkerConfig{})

	job := &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobPublishPost, UserID: "user-1", PostID: post.ID}
	if err := worker.handlers.Handle(context.Background(), job); err == nil {
		t.Fatal("publishing another user's post must fail")
	}
}

func TestHandleGenerateRequiresActiveSubscription(t *testing.T) {
	clients := testClients()
	clients.sub = nil

	worker, _ := newTestWorker(clients, newMemPostRepo(), &stubGenerator{}, &stubPublisher{}, WorkerConfig{})

	job := &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobGeneratePost, UserID: "user-1"}
	if err := worker.handlers.Handle(context.Background(), job); err == nil {
		t.Fatal("a job without an active subscription must fail")
	}
}

func TestHandleUnknownKind(t *testing.T) {
	worker, _ := newTestWorker(testClients(), newMemPostRepo(), &stubGenerator{}, &stubPublisher{}, WorkerConfig{})
	job := &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobKind("mystery"), UserID: "user-1"}
	if err := worker.handlers.Handle(context.Background(), job); err == nil {
		t.Fatal("unknown job kinds must be rejected")
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	// No consumer started: the buffered queue fills up.
	worker, repo := newTestWorker(testClients(), newMemPostRepo(), &stubGenerator{}, &stubPublisher{}, WorkerConfig{QueueSize: 1})

	ctx := context.Background()
	if err := worker.Enqueue(ctx, &jobsDomain.Job{ID: "job-1", Kind: jobsDomain.JobGeneratePost, UserID: "user-1"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	err := worker.Enqueue(ctx, &jobsDomain.Job{ID: "job-2", Kind: jobsDomain.JobGeneratePost, UserID: "user-1"})
	if err == nil {
		t.Fatal("expected a full-queue error")
	}
	if repo.status(t, "job-2") != jobsDomain.JobFailed {
		t.Fatal("a rejected job must be recorded as failed")
	}
}
