// Command main populates the feed store with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"alumnet/internal/cache"
	"alumnet/internal/config"
	"alumnet/internal/database"
	"alumnet/internal/identity"
	"alumnet/internal/localstore"
	"alumnet/internal/repository"
	"alumnet/internal/seed"
)

func main() {
	numMembers := flag.Int("members", 20, "Number of alumni members to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	maxComments := flag.Int("max-comments", 4, "Maximum comments per post")
	maxLikes := flag.Int("max-likes", 8, "Maximum likes per post")
	seedValue := flag.Int64("seed", 0, "Deterministic generator seed (0 = random)")
	printToken := flag.Bool("token", true, "Print a demo bearer token for the first member")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var (
		posts    repository.PostRepository
		comments repository.CommentRepository
	)
	switch cfg.StoreBackend {
	case config.StoreLocal:
		cache.InitRedis(cfg.RedisURL)
		var kv localstore.KV
		if client := cache.GetClient(); client != nil {
			kv = localstore.NewRedisKV(client)
		} else {
			kv = localstore.NewMemoryKV()
			log.Println("WARNING: seeding an in-memory store; data is lost on exit")
		}
		store := localstore.New(kv)
		posts = store.Posts()
		comments = store.Comments()
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		posts = repository.NewPostRepository(db)
		comments = repository.NewCommentRepository(db)
	}

	opts := seed.Options{
		NumMembers:         *numMembers,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		MaxLikesPerPost:    *maxLikes,
		Seed:               *seedValue,
	}
	s := seed.NewSeeder(posts, comments, identity.NewDirectory(), opts)
	summary, err := s.Run(context.Background(), opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if *printToken && len(summary.Members) > 0 {
		member := summary.Members[0]
		token, err := identity.IssueToken(cfg.JWTSecret, member, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue demo token: %v", err)
		}
		log.Printf("Demo member: %s (%s)", member.Author.Name, member.UserID)
		log.Printf("Demo token: %s", token)
	}
}
