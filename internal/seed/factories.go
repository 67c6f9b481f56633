// Package seed provides helpers to create demo data for the feed. These
// helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"alumnet/internal/identity"
	"alumnet/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	designations = []string{
		"Software Engineer", "Senior Software Engineer", "Engineering Manager",
		"Product Manager", "Data Scientist", "Consultant", "Founder",
		"Research Scholar", "Civil Engineer", "Architect", "Professor",
	}

	youtubeIDs = []string{
		"dQw4w9WgXcQ", "9bZkp7q19f0", "3JZ_D3ELwOQ", "L_jWHffIx5E", "kXYiU_JCYtU",
	}

	commentLines = []string{
		"Congratulations!", "Well deserved.", "Great to see this, keep it up!",
		"Proud moment for the batch.", "This brings back memories.",
		"Count me in for the next meetup.", "Thanks for sharing!",
	}
)

// Factory builds domain entities with generated content.
type Factory struct {
	rng *rand.Rand
}

// NewFactory creates a Factory with a deterministic generator when seed is
// non-zero.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{rng: rand.New(rand.NewSource(seed))}
}

// Member generates an alumni principal with a display snapshot.
func (f *Factory) Member() identity.Principal {
	name := gofakeit.Name()
	return identity.Principal{
		UserID: gofakeit.UUID(),
		Author: models.AuthorSnapshot{
			Name:        name,
			PhotoURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			Batch:       fmt.Sprintf("%d", 1995+f.rng.Intn(30)),
			Designation: designations[f.rng.Intn(len(designations))],
			Company:     gofakeit.Company(),
		},
	}
}

// BuildPost constructs an unpersisted post by the given member. Roughly
// half the posts are text-only, with the remainder split between image and
// youtube media.
func (f *Factory) BuildPost(author identity.Principal, maxDays int) *models.Post {
	post := &models.Post{
		AuthorID:  author.UserID,
		Author:    author.Author,
		Content:   "<p>" + gofakeit.Paragraph(1, 3, 12, " ") + "</p>",
		MediaType: models.MediaTypeNone,
	}

	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute
	post.CreatedAt = time.Now().UTC().Add(-back)

	switch f.rng.Intn(4) {
	case 0:
		post.MediaType = models.MediaTypeImage
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
	case 1:
		id := youtubeIDs[f.rng.Intn(len(youtubeIDs))]
		post.MediaType = models.MediaTypeYoutube
		post.YoutubeURL = fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
		post.YoutubeID = id
		post.VideoTitle = gofakeit.Sentence(4)
	}
	return post
}

// BuildComment constructs an unpersisted comment on the given post.
func (f *Factory) BuildComment(author identity.Principal, post *models.Post) *models.Comment {
	age := time.Since(post.CreatedAt)
	if age < time.Minute {
		age = time.Minute
	}
	return &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.UserID,
		Author:    author.Author,
		Content:   commentLines[f.rng.Intn(len(commentLines))],
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Int63n(int64(age)))),
	}
}
