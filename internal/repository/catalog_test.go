package repository

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"
)

func seedCatalog(t *testing.T) (BookRepository, AuthorRepository, []models.Author) {
	t.Helper()
	gdb := newTestDB(t)

	orwell := models.Author{Name: "George Orwell"}
	austen := models.Author{Name: "Jane Austen"}
	tolkien := models.Author{Name: "J.R.R. Tolkien"}
	for _, a := range []*models.Author{&orwell, &austen, &tolkien} {
		mustCreate(t, gdb, a)
	}

	books := []models.Book{
		{Title: "1984", PublicationYear: 1949, AuthorID: orwell.ID},
		{Title: "Animal Farm", PublicationYear: 1945, AuthorID: orwell.ID},
		{Title: "Pride and Prejudice", PublicationYear: 1813, AuthorID: austen.ID},
		{Title: "Emma", PublicationYear: 1815, AuthorID: austen.ID},
		{Title: "The Hobbit", PublicationYear: 1937, AuthorID: tolkien.ID},
	}
	for i := range books {
		mustCreate(t, gdb, &books[i])
	}

	return NewBookRepository(gdb), NewAuthorRepository(gdb), []models.Author{orwell, austen, tolkien}
}

func TestBookRepository_ListFilters(t *testing.T) {
	t.Parallel()

	repo, _, authors := seedCatalog(t)
	ctx := context.Background()
	orwell := authors[0]

	t.Run("Default ordering is title ascending", func(t *testing.T) {
		books, total, err := repo.List(ctx, BookListOptions{Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 5 || len(books) != 5 {
			t.Fatalf("expected all 5 books, got total=%d len=%d", total, len(books))
		}
		if books[0].Title != "1984" || books[4].Title != "The Hobbit" {
			t.Fatalf("unexpected order: %s ... %s", books[0].Title, books[4].Title)
		}
		if books[0].AuthorName != "George Orwell" {
			t.Errorf("expected joined author_name, got %q", books[0].AuthorName)
		}
	})

	t.Run("Exact title", func(t *testing.T) {
		books, total, err := repo.List(ctx, BookListOptions{Title: "Emma", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || books[0].Title != "Emma" {
			t.Fatalf("expected only Emma, got total=%d %+v", total, books)
		}
		// exact means exact, not substring
		_, total, _ = repo.List(ctx, BookListOptions{Title: "Emm", Limit: 10})
		if total != 0 {
			t.Fatalf("partial title must not match exact filter, got %d", total)
		}
	})

	t.Run("Author and year filters", func(t *testing.T) {
		_, total, err := repo.List(ctx, BookListOptions{AuthorID: orwell.ID, Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 {
			t.Fatalf("expected 2 Orwell books, got %d", total)
		}

		books, total, err := repo.List(ctx, BookListOptions{PublicationYear: 1937, Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || books[0].Title != "The Hobbit" {
			t.Fatalf("expected The Hobbit for 1937, got %+v", books)
		}
	})

	t.Run("Year range", func(t *testing.T) {
		books, total, err := repo.List(ctx, BookListOptions{YearFrom: 1900, YearTo: 1946, Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 {
			t.Fatalf("expected 2 books in range, got %d", total)
		}
		for _, b := range books {
			if b.PublicationYear < 1900 || b.PublicationYear > 1946 {
				t.Errorf("book %q outside range: %d", b.Title, b.PublicationYear)
			}
		}
	})

	t.Run("Search spans title and author", func(t *testing.T) {
		_, total, err := repo.List(ctx, BookListOptions{Search: "orwell", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 {
			t.Fatalf("expected 2 results for author search, got %d", total)
		}

		books, total, err := repo.List(ctx, BookListOptions{Search: "hobbit", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || books[0].Title != "The Hobbit" {
			t.Fatalf("expected The Hobbit via title search, got %+v", books)
		}
	})

	t.Run("Author name contains", func(t *testing.T) {
		_, total, err := repo.List(ctx, BookListOptions{AuthorName: "austen", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 2 {
			t.Fatalf("expected 2 Austen books, got %d", total)
		}
	})

	t.Run("Ordering with direction", func(t *testing.T) {
		books, _, err := repo.List(ctx, BookListOptions{Ordering: "-publication_year", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if books[0].Title != "1984" {
			t.Fatalf("expected newest publication first, got %s", books[0].Title)
		}
		if books[len(books)-1].Title != "Pride and Prejudice" {
			t.Fatalf("expected oldest last, got %s", books[len(books)-1].Title)
		}
	})

	t.Run("Unknown ordering falls back to title", func(t *testing.T) {
		books, _, err := repo.List(ctx, BookListOptions{Ordering: "price; DROP TABLE books", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if books[0].Title != "1984" {
			t.Fatalf("expected default title order, got %s first", books[0].Title)
		}
	})

	t.Run("Pagination window", func(t *testing.T) {
		books, total, err := repo.List(ctx, BookListOptions{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 5 {
			t.Fatalf("total must ignore the window, got %d", total)
		}
		if len(books) != 2 || books[0].Title != "Emma" {
			t.Fatalf("expected page 2 starting at Emma, got %+v", books)
		}
	})
}

func TestBookRepository_CreateAndUniqueness(t *testing.T) {
	t.Parallel()

	repo, _, authors := seedCatalog(t)
	ctx := context.Background()
	orwell, austen := authors[0], authors[1]

	t.Run("Duplicate title for same author rejected", func(t *testing.T) {
		err := repo.Create(ctx, &models.Book{Title: "1984", PublicationYear: 1949, AuthorID: orwell.ID})
		if err == nil {
			t.Fatal("expected unique violation")
		}
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code != "CONFLICT" {
			t.Fatalf("expected conflict app error, got %v", err)
		}
	})

	t.Run("Same title for another author allowed", func(t *testing.T) {
		book := models.Book{Title: "1984", PublicationYear: 1984, AuthorID: austen.ID}
		if err := repo.Create(ctx, &book); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if book.ID == 0 {
			t.Fatal("expected persisted book")
		}
	})

	t.Run("TitleTakenForAuthor", func(t *testing.T) {
		taken, err := repo.TitleTakenForAuthor(ctx, "Emma", austen.ID, 0)
		if err != nil {
			t.Fatalf("TitleTakenForAuthor: %v", err)
		}
		if !taken {
			t.Error("expected Emma to be taken for Austen")
		}

		taken, err = repo.TitleTakenForAuthor(ctx, "Emma", orwell.ID, 0)
		if err != nil {
			t.Fatalf("TitleTakenForAuthor: %v", err)
		}
		if taken {
			t.Error("Emma is not an Orwell title")
		}
	})
}

func TestBookRepository_GetUpdateDelete(t *testing.T) {
	t.Parallel()

	repo, _, _ := seedCatalog(t)
	ctx := context.Background()

	books, _, err := repo.List(ctx, BookListOptions{Title: "1984", Limit: 1})
	if err != nil || len(books) != 1 {
		t.Fatalf("locate seed book: %v %+v", err, books)
	}
	id := books[0].ID

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AuthorName != "George Orwell" {
		t.Errorf("expected author_name joined, got %q", got.AuthorName)
	}

	got.PublicationYear = 1950
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	reloaded, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if reloaded.PublicationYear != 1950 {
		t.Errorf("expected updated year, got %d", reloaded.PublicationYear)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); err == nil {
		t.Fatal("deleted book should not resolve")
	}
	if err := repo.Delete(ctx, id); err == nil {
		t.Fatal("second delete should report not found")
	}
}

func TestAuthorRepository_ListAndDetail(t *testing.T) {
	t.Parallel()

	_, repo, _ := seedCatalog(t)
	ctx := context.Background()

	t.Run("Default name ordering with counts", func(t *testing.T) {
		authors, total, err := repo.List(ctx, AuthorListOptions{Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 3 || len(authors) != 3 {
			t.Fatalf("expected 3 authors, got total=%d len=%d", total, len(authors))
		}
		if authors[0].Name != "George Orwell" {
			t.Fatalf("expected name-ascending, got %s first", authors[0].Name)
		}
		if authors[0].BookCount != 2 {
			t.Errorf("expected book_count 2 for Orwell, got %d", authors[0].BookCount)
		}
		for _, a := range authors {
			if len(a.Books) != 0 {
				t.Errorf("list rows must not nest books, got %d for %s", len(a.Books), a.Name)
			}
		}
	})

	t.Run("Search", func(t *testing.T) {
		authors, total, err := repo.List(ctx, AuthorListOptions{Search: "tolkien", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || authors[0].Name != "J.R.R. Tolkien" {
			t.Fatalf("expected Tolkien, got %+v", authors)
		}
	})

	t.Run("Ordering desc", func(t *testing.T) {
		authors, _, err := repo.List(ctx, AuthorListOptions{Ordering: "-name", Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if authors[0].Name != "Jane Austen" {
			t.Fatalf("expected Jane Austen first on -name, got %s", authors[0].Name)
		}
	})

	t.Run("Detail nests books", func(t *testing.T) {
		authors, _, err := repo.List(ctx, AuthorListOptions{Search: "orwell", Limit: 1})
		if err != nil || len(authors) != 1 {
			t.Fatalf("locate orwell: %v", err)
		}
		got, err := repo.GetByID(ctx, authors[0].ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if len(got.Books) != 2 {
			t.Fatalf("expected 2 nested books, got %d", len(got.Books))
		}
		if got.Books[0].Title != "Animal Farm" {
			t.Errorf("expected publication-year ordering, got %s first", got.Books[0].Title)
		}
	})
}

func TestAuthorRepository_DeleteCascadesBooks(t *testing.T) {
	t.Parallel()

	books, repo, authors := seedCatalog(t)
	ctx := context.Background()
	orwell := authors[0]

	if err := repo.Delete(ctx, orwell.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, orwell.ID); err == nil {
		t.Fatal("deleted author should not resolve")
	}

	_, total, err := books.List(ctx, BookListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List books: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected Orwell's 2 books removed, got %d remaining", total)
	}

	var appErr *models.AppError
	err = repo.Delete(ctx, orwell.ID)
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}
