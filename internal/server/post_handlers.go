package server

import (
	"alumnet/internal/models"
	"alumnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed/posts?page=&limit=&search=&sort=
func (s *Server) GetFeed(c *fiber.Ctx) error {
	ctx := c.Context()

	page, err := s.feedService.ListPosts(ctx, service.ListPostsInput{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		ViewerID: viewerID(c),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(page)
}

// GetPost handles GET /api/feed/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	id := c.Params("id")

	post, err := s.feedService.GetPost(ctx, id, viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /api/feed/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	principal, ok := principalFromCtx(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	var req struct {
		Content    string `json:"content"`
		MediaType  string `json:"media_type"`
		ImageURL   string `json:"image_url"`
		YoutubeURL string `json:"youtube_url"`
		VideoTitle string `json:"video_title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedService.CreatePost(ctx, principal, service.CreatePostInput{
		Content:    req.Content,
		MediaType:  req.MediaType,
		ImageURL:   req.ImageURL,
		YoutubeURL: req.YoutubeURL,
		VideoTitle: req.VideoTitle,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// ToggleLike handles POST /api/feed/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx := c.Context()
	principal, ok := principalFromCtx(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	result, err := s.feedService.ToggleLike(ctx, principal.UserID, c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}
