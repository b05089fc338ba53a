// Package seed provides helpers to create demo and test data for the
// application database. Intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures a seeding run.
type Options struct {
	Users    int
	Authors  int
	Books    int
	Posts    int
	Comments int
	Likes    int

	DryRun bool
	// SkipBcrypt stores a plain-text marker password instead of hashing.
	// Dev fast mode only; bcrypt dominates seeding time otherwise.
	SkipBcrypt bool
	// MaxDays bounds how far in the past generated timestamps spread.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		// #nosec G404: acceptable for seeding
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1000,
	}
}

func (f *Factory) maxDays() int {
	if f.opts.MaxDays <= 0 {
		return 90
	}
	return f.opts.MaxDays
}

// pastTime returns a timestamp spread over the last MaxDays days so lists
// and ordering look realistic.
func (f *Factory) pastTime() time.Time {
	daysBack := f.rng.Intn(f.maxDays())
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample user together with its empty
// profile, matching the registration invariant of one profile per user.
// Unique fields are salted so re-running the seeder never collides.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	salt := gofakeit.Number(100, 999)
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), salt),
		Email:     fmt.Sprintf("%d.%s", salt, gofakeit.Email()),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		CreatedAt: f.pastTime(),
		Profile: &models.Profile{
			Bio:      gofakeit.Sentence(10),
			Location: fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
		},
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: username=%s email=%s", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAuthor constructs and persists a sample catalog author.
func (f *Factory) CreateAuthor(overrides ...func(*models.Author)) (*models.Author, error) {
	author := &models.Author{
		Name:      gofakeit.Name(),
		CreatedAt: f.pastTime(),
	}

	for _, override := range overrides {
		override(author)
	}

	if f.opts.DryRun {
		f.nextID++
		author.ID = f.nextID
		log.Printf("[dry-run] CreateAuthor: name=%s", author.Name)
		return author, nil
	}

	if err := f.db.Create(author).Error; err != nil {
		return nil, err
	}
	return author, nil
}

// CreateBook constructs and persists a sample book for the given author.
// Titles are salted because (title, author_id) is unique; publication years
// stay within the validated [1000, current year] range.
func (f *Factory) CreateBook(author *models.Author, overrides ...func(*models.Book)) (*models.Book, error) {
	currentYear := time.Now().UTC().Year()
	book := &models.Book{
		Title:           fmt.Sprintf("%s (%d)", gofakeit.BookTitle(), gofakeit.Number(1, 9999)),
		PublicationYear: gofakeit.Number(1900, currentYear),
		AuthorID:        author.ID,
		CreatedAt:       f.pastTime(),
	}

	for _, override := range overrides {
		override(book)
	}

	if f.opts.DryRun {
		f.nextID++
		book.ID = f.nextID
		log.Printf("[dry-run] CreateBook: title=%q year=%d author=%d",
			book.Title, book.PublicationYear, book.AuthorID)
		return book, nil
	}

	if err := f.db.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// FindOrCreateTag persists a tag unless one with the same name exists.
func (f *Factory) FindOrCreateTag(name, color string) (*models.Tag, error) {
	if color == "" {
		color = models.DefaultTagColor
	}
	tag := &models.Tag{Name: name, Color: color}

	if f.opts.DryRun {
		f.nextID++
		tag.ID = f.nextID
		return tag, nil
	}

	if err := f.db.Where("name = ?", name).
		Attrs(models.Tag{Color: color}).
		FirstOrCreate(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// CreatePost constructs and persists a sample post by the given user with
// the given tags. Slugs are salted with a random suffix so reseeding never
// hits the unique index.
func (f *Factory) CreatePost(user *models.User, tags []models.Tag, overrides ...func(*models.Post)) (*models.Post, error) {
	title := strings.TrimSuffix(gofakeit.Sentence(6), ".")
	content := gofakeit.Paragraph(3, 4, 12, "\n\n")
	createdAt := f.pastTime()

	post := &models.Post{
		Title:     title,
		Slug:      fmt.Sprintf("%s-%d", seedSlug(title), gofakeit.Number(1000, 9999)),
		Content:   content,
		Excerpt:   seedExcerpt(content),
		Status:    models.PostStatusPublished,
		AuthorID:  user.ID,
		Tags:      tags,
		CreatedAt: createdAt,
	}
	publishedAt := createdAt
	post.PublishedAt = &publishedAt

	// roughly one in six posts stays a draft
	if f.rng.Intn(6) == 0 {
		post.Status = models.PostStatusDraft
		post.PublishedAt = nil
	}

	for _, override := range overrides {
		override(post)
	}

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: slug=%s status=%s author=%d", post.Slug, post.Status, post.AuthorID)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment constructs and persists a sample comment on the provided
// post. Pass a parent to create a reply (one level deep).
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		// two sentences clears the 10-char content floor
		Content:   gofakeit.Sentence(8) + " " + gofakeit.Sentence(6),
		PostID:    post.ID,
		AuthorID:  user.ID,
		Approved:  true,
		CreatedAt: f.pastTime(),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on comment. Duplicate pairs are
// ignored, mirroring the toggle endpoint's ON CONFLICT insert.
func (f *Factory) CreateLike(user *models.User, comment *models.Comment) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.CommentLike{UserID: user.ID, CommentID: comment.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// seedSlug is a cheap slugifier for generated titles. The API derives real
// slugs in the post service; seeded slugs only need to be URL-safe.
func seedSlug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func seedExcerpt(content string) string {
	if len(content) <= 300 {
		return content
	}
	return content[:297] + "..."
}
