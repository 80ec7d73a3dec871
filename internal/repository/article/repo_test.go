package article

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ausaur/saurcours/internal/domain"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{
		Slug:     "resilier-un-abonnement",
		Title:    "Résilier un abonnement",
		Content:  "Étapes de résiliation.",
		Category: "Processus",
		Type:     "process",
		Tags:     []string{"abo", "resiliation"},
		Links:    []string{"tarifs"},
	}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	if a.ID == 0 {
		t.Error("ID not assigned")
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("timestamps not filled")
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != a.Title || got.Content != a.Content {
		t.Errorf("got %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "abo" {
		t.Errorf("tags = %v", got.Tags)
	}
	if len(got.Links) != 1 || got.Links[0] != "tarifs" {
		t.Errorf("links = %v", got.Links)
	}

	bySlug, err := repo.GetBySlug(ctx, a.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if bySlug.ID != a.ID {
		t.Errorf("GetBySlug id = %d, want %d", bySlug.ID, a.ID)
	}
}

func TestCreate_NilListsStoredAsEmpty(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Slug: "tarifs", Title: "Tarifs"}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("tags = %#v, want empty list", got.Tags)
	}
	if got.Links == nil || len(got.Links) != 0 {
		t.Errorf("links = %#v, want empty list", got.Links)
	}
}

func TestCreate_DuplicateSlugIsSlugTaken(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Slug: "tarifs", Title: "Tarifs"}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	b := domain.Article{Slug: "tarifs", Title: "Tarifs bis"}
	if err := repo.Create(ctx, &b); !errors.Is(err, domain.ErrSlugTaken) {
		t.Errorf("error = %v, want ErrSlugTaken", err)
	}
}

func TestUpdate_SlugCollisionIsSlugTaken(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Slug: "tarifs", Title: "Tarifs"}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	b := domain.Article{Slug: "contact", Title: "Contact"}
	if err := repo.Create(ctx, &b); err != nil {
		t.Fatal(err)
	}

	b.Slug = "tarifs"
	if err := repo.Update(ctx, &b); !errors.Is(err, domain.ErrSlugTaken) {
		t.Errorf("error = %v, want ErrSlugTaken", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Slug: "tarifs", Title: "Tarifs"}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}

	a.Title = "Tarifs 2026"
	a.Tags = []string{"prix"}
	if err := repo.Update(ctx, &a); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Tarifs 2026" || len(got.Tags) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestUpdate_MissingRow(t *testing.T) {
	repo := testRepo(t)
	a := domain.Article{ID: 42, Slug: "x", Title: "x"}
	if err := repo.Update(context.Background(), &a); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Slug: "tarifs", Title: "Tarifs"}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, a := range []domain.Article{
		{Slug: "tarifs", Title: "Tarifs", Category: "Facturation"},
		{Slug: "contact", Title: "Contact", Category: "Support"},
		{Slug: "resilier", Title: "Résilier", Content: "facturation finale", Category: "Processus"},
	} {
		a := a
		if err := repo.Create(ctx, &a); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Same updated_at second for all rows: id DESC breaks the tie.
	if all[0].Slug != "resilier" {
		t.Errorf("first = %q, want most recent", all[0].Slug)
	}

	matched, err := repo.List(ctx, "facturation", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 2 {
		t.Errorf("filtered len = %d, want 2 (category + content match)", len(matched))
	}

	paged, err := repo.List(ctx, "", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 {
		t.Errorf("paged len = %d, want 1", len(paged))
	}
}

func TestListAllAndListSlugs(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, slug := range []string{"tarifs", "contact"} {
		a := domain.Article{Slug: slug, Title: slug}
		if err := repo.Create(ctx, &a); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Slug != "tarifs" {
		t.Errorf("ListAll = %v", all)
	}

	slugs, err := repo.ListSlugs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slugs["tarifs"] || !slugs["contact"] || len(slugs) != 2 {
		t.Errorf("slugs = %v", slugs)
	}
}

func TestSlugExists(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Slug: "tarifs", Title: "Tarifs"}
	if err := repo.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}

	taken, err := repo.SlugExists(ctx, "tarifs", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !taken {
		t.Error("existing slug reported free")
	}

	taken, err = repo.SlugExists(ctx, "tarifs", a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if taken {
		t.Error("own slug reported taken when excluded")
	}

	taken, err = repo.SlugExists(ctx, "libre", 0)
	if err != nil {
		t.Fatal(err)
	}
	if taken {
		t.Error("free slug reported taken")
	}
}

func TestDecodeList_ToleratesBadJSON(t *testing.T) {
	for _, s := range []string{"", "not json", "null", `{"a":1}`} {
		if got := decodeList(s); got == nil || len(got) != 0 {
			t.Errorf("decodeList(%q) = %#v, want empty list", s, got)
		}
	}
	if got := decodeList(`["a","b"]`); len(got) != 2 {
		t.Errorf("decodeList valid = %v", got)
	}
}
