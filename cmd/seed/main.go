// Command seed populates the database with generated demo data.
package main

import (
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "number of users to create")
	numAuthors := flag.Int("authors", 10, "number of catalog authors to create")
	numBooks := flag.Int("books", 60, "number of books to create")
	numPosts := flag.Int("posts", 80, "number of posts to create")
	numComments := flag.Int("comments", 200, "number of comments to create")
	numLikes := flag.Int("likes", 400, "number of comment likes to create")
	shouldClean := flag.Bool("clean", true, "clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "log what would be created without writing")
	fast := flag.Bool("fast", false, "skip bcrypt hashing for seeded passwords")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d authors, %d books, %d posts, %d comments, %d likes (clean=%v dry-run=%v)",
		*numUsers, *numAuthors, *numBooks, *numPosts, *numComments, *numLikes, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:      *numUsers,
		Authors:    *numAuthors,
		Books:      *numBooks,
		Posts:      *numPosts,
		Comments:   *numComments,
		Likes:      *numLikes,
		DryRun:     *dryRun,
		SkipBcrypt: *fast,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! The database is populated with demo data.")
	log.Println("📧 All seeded users have the password: password123")
}
