package seed

import (
	"context"
	"fmt"
	"log"

	"alumnet/internal/identity"
	"alumnet/internal/repository"
)

// Options configures a seeding run.
type Options struct {
	NumMembers         int
	NumPosts           int
	MaxCommentsPerPost int
	MaxLikesPerPost    int
	// Seed makes the run deterministic when non-zero.
	Seed int64
}

// Summary reports what a seeding run created.
type Summary struct {
	Members  []identity.Principal
	Posts    int
	Comments int
	Likes    int
}

// Seeder populates the feed store through the repository interfaces, so it
// works identically against Postgres and the local key-value store.
type Seeder struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	directory *identity.Directory
	factory   *Factory
}

// NewSeeder creates a Seeder. directory may be nil when the caller does not
// need the generated members registered for lookup.
func NewSeeder(posts repository.PostRepository, comments repository.CommentRepository, directory *identity.Directory, opts Options) *Seeder {
	return &Seeder{
		posts:     posts,
		comments:  comments,
		directory: directory,
		factory:   NewFactory(opts.Seed),
	}
}

// Run generates members, posts, comments and likes per the options.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.NumMembers <= 0 {
		opts.NumMembers = 20
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 60
	}
	if opts.MaxCommentsPerPost < 0 {
		opts.MaxCommentsPerPost = 0
	}

	summary := &Summary{}
	for i := 0; i < opts.NumMembers; i++ {
		member := s.factory.Member()
		if s.directory != nil {
			s.directory.Add(member.UserID, member.Author)
		}
		summary.Members = append(summary.Members, member)
	}

	rng := s.factory.rng
	for i := 0; i < opts.NumPosts; i++ {
		author := summary.Members[rng.Intn(len(summary.Members))]
		post := s.factory.BuildPost(author, 90)
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post %d: %w", i, err)
		}
		summary.Posts++

		if opts.MaxCommentsPerPost > 0 {
			for n := rng.Intn(opts.MaxCommentsPerPost + 1); n > 0; n-- {
				commenter := summary.Members[rng.Intn(len(summary.Members))]
				comment := s.factory.BuildComment(commenter, post)
				if err := s.comments.Create(ctx, comment); err != nil {
					return nil, fmt.Errorf("create comment on post %s: %w", post.ID, err)
				}
				summary.Comments++
			}
		}

		if opts.MaxLikesPerPost > 0 {
			// Pick distinct likers by walking a shuffled member order.
			order := rng.Perm(len(summary.Members))
			for _, idx := range order[:min(rng.Intn(opts.MaxLikesPerPost+1), len(order))] {
				if err := s.posts.Like(ctx, summary.Members[idx].UserID, post.ID); err != nil {
					return nil, fmt.Errorf("like post %s: %w", post.ID, err)
				}
				summary.Likes++
			}
		}
	}

	log.Printf("Seeded %d members, %d posts, %d comments, %d likes",
		len(summary.Members), summary.Posts, summary.Comments, summary.Likes)
	return summary, nil
}
