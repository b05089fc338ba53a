package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// tagCorpus is the fixed set of tags the seeder draws from. Colors follow
// the hex format the tag model stores.
var tagCorpus = []models.Tag{
	{Name: "go", Color: "#00add8"},
	{Name: "python", Color: "#3572a5"},
	{Name: "javascript", Color: "#f1e05a"},
	{Name: "databases", Color: "#336791"},
	{Name: "devops", Color: "#ee0000"},
	{Name: "web", Color: "#007bff"},
	{Name: "testing", Color: "#28a745"},
	{Name: "performance", Color: "#fd7e14"},
	{Name: "security", Color: "#6f42c1"},
	{Name: "tutorial", Color: "#17a2b8"},
	{Name: "opinion", Color: "#6c757d"},
	{Name: "career", Color: "#e83e8c"},
}

// Seeder populates the database with generated blog and catalog data.
type Seeder struct {
	db   *gorm.DB
	f    *Factory
	opts Options
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, f: NewFactory(db, opts), opts: opts}
}

// ClearAll removes all seeded data in foreign-key order. Hard deletes, so
// soft-deleted rows go too.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll: skipped")
		return nil
	}

	tables := []string{
		"notifications",
		"comment_likes",
		"comments",
		"post_tags",
		"posts",
		"tags",
		"books",
		"authors",
		"profiles",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	log.Println("✓ existing data cleared")
	return nil
}

// Run seeds users, the catalog and the blog in dependency order.
func (s *Seeder) Run() error {
	users, err := s.seedUsers()
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	authors, books, err := s.seedCatalog()
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Printf("✓ %d authors, %d books created", len(authors), books)

	tags, err := s.seedTags()
	if err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}
	log.Printf("✓ %d tags available", len(tags))

	posts, err := s.seedPosts(users, tags)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	comments, err := s.seedComments(users, posts)
	if err != nil {
		return fmt.Errorf("seed comments: %w", err)
	}
	log.Printf("✓ %d comments created", len(comments))

	likes, err := s.seedLikes(users, comments)
	if err != nil {
		return fmt.Errorf("seed likes: %w", err)
	}
	log.Printf("✓ %d likes created", likes)

	return nil
}

func (s *Seeder) seedUsers() ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		overrides := []func(*models.User){}
		if i == 0 {
			// first seeded account doubles as the staff/demo login
			overrides = append(overrides, func(u *models.User) {
				u.Username = "demo_admin"
				u.Email = "admin@inkwell.local"
				u.IsStaff = true
			})
		}
		user, err := s.f.CreateUser(overrides...)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedCatalog() ([]*models.Author, int, error) {
	authors := make([]*models.Author, 0, s.opts.Authors)
	for i := 0; i < s.opts.Authors; i++ {
		author, err := s.f.CreateAuthor()
		if err != nil {
			return nil, 0, err
		}
		authors = append(authors, author)
	}

	books := 0
	for i := 0; i < s.opts.Books && len(authors) > 0; i++ {
		author := authors[i%len(authors)]
		if _, err := s.f.CreateBook(author); err != nil {
			return nil, 0, err
		}
		books++
	}
	return authors, books, nil
}

func (s *Seeder) seedTags() ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagCorpus))
	for _, t := range tagCorpus {
		tag, err := s.f.FindOrCreateTag(t.Name, t.Color)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func (s *Seeder) seedPosts(users []*models.User, tags []models.Tag) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		author := users[s.f.rng.Intn(len(users))]
		postTags := pickTags(s.f, tags)
		post, err := s.f.CreatePost(author, postTags)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedComments(users []*models.User, posts []*models.Post) ([]*models.Comment, error) {
	if len(users) == 0 || len(posts) == 0 {
		return nil, nil
	}
	comments := make([]*models.Comment, 0, s.opts.Comments)
	var topLevel []*models.Comment
	for i := 0; i < s.opts.Comments; i++ {
		user := users[s.f.rng.Intn(len(users))]

		// roughly a quarter of comments are replies once parents exist
		var parent *models.Comment
		if len(topLevel) > 0 && s.f.rng.Intn(4) == 0 {
			parent = topLevel[s.f.rng.Intn(len(topLevel))]
		}

		var post *models.Post
		if parent != nil {
			for _, p := range posts {
				if p.ID == parent.PostID {
					post = p
					break
				}
			}
		}
		if post == nil {
			parent = nil
			post = posts[s.f.rng.Intn(len(posts))]
		}

		comment, err := s.f.CreateComment(user, post, parent)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
		if comment.ParentID == nil {
			topLevel = append(topLevel, comment)
		}
	}
	return comments, nil
}

func (s *Seeder) seedLikes(users []*models.User, comments []*models.Comment) (int, error) {
	if len(users) == 0 || len(comments) == 0 {
		return 0, nil
	}
	likes := 0
	for i := 0; i < s.opts.Likes; i++ {
		user := users[s.f.rng.Intn(len(users))]
		comment := comments[s.f.rng.Intn(len(comments))]
		if err := s.f.CreateLike(user, comment); err != nil {
			return likes, err
		}
		likes++
	}
	return likes, nil
}

func pickTags(f *Factory, tags []models.Tag) []models.Tag {
	if len(tags) == 0 {
		return nil
	}
	n := 1 + f.rng.Intn(3)
	if n > len(tags) {
		n = len(tags)
	}
	picked := make([]models.Tag, 0, n)
	seen := map[uint]bool{}
	for len(picked) < n {
		t := tags[f.rng.Intn(len(tags))]
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		picked = append(picked, t)
	}
	return picked
}
