package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/blogsmith/blogsmith/content/domain"
)

func setupKeywordRepo(t *testing.T) *KeywordGormRepository {
	t.Helper()
	repo := NewKeywordGormRepository(setupDB(t))
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return repo
}

func TestAttachIsIdempotentPerPost(t *testing.T) {
	repo := setupKeywordRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Attach(ctx, "post-1", "Marketing"); err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}

	kw, err := repo.GetByName(ctx, "marketing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if kw.UsageCount != 1 {
		t.Fatalf("re-attaching must not inflate usage, got %d", kw.UsageCount)
	}

	attached, err := repo.ListByPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attached) != 1 {
		t.Fatalf("expected one attachment, got %d", len(attached))
	}
}

func TestAttachSharesKeywordAcrossPosts(t *testing.T) {
	repo := setupKeywordRepo(t)
	ctx := context.Background()

	if err := repo.Attach(ctx, "post-1", "growth"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := repo.Attach(ctx, "post-2", "growth"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	kw, err := repo.GetByName(ctx, "growth")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if kw.UsageCount != 2 {
		t.Fatalf("each new attachment increments usage once, got %d", kw.UsageCount)
	}
}

func TestAttachNormalizesName(t *testing.T) {
	repo := setupKeywordRepo(t)
	ctx := context.Background()

	if err := repo.Attach(ctx, "post-1", "  SEO  "); err != nil {
		t.Fatalf("attach: %v", err)
	}
	kw, err := repo.GetByName(ctx, "seo")
	if err != nil {
		t.Fatalf("expected normalized keyword, got %v", err)
	}
	if kw.Name != "seo" {
		t.Fatalf("expected lowercase trimmed name, got %q", kw.Name)
	}

	// Blank names are silently dropped.
	if err := repo.Attach(ctx, "post-1", "   "); err != nil {
		t.Fatalf("blank attach must be a no-op: %v", err)
	}
}

func TestGetByNameNotFound(t *testing.T) {
	repo := setupKeywordRepo(t)
	if _, err := repo.GetByName(context.Background(), "missing"); !errors.Is(err, domain.ErrKeywordNotFound) {
		t.Fatalf("expected ErrKeywordNotFound, got %v", err)
	}
}
