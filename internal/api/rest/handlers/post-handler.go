package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/dto"
	"github.com/trailpost/trailpost/internal/helper/utils"
	"github.com/trailpost/trailpost/internal/services"
)

type PostHandler struct {
	svc services.PostService
}

func NewPostHandler(svc services.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

func (h *PostHandler) SetupRoutes(app *fiber.App, gate fiber.Handler) {
	posts := app.Group("/api/posts")

	posts.Get("/", h.ListPosts)
	posts.Get("/:publicID", h.GetPost)

	posts.Post("/", gate, h.CreatePost)
	posts.Patch("/:publicID", gate, h.UpdatePost)
	posts.Delete("/:publicID", gate, h.DeletePost)
}

func (h *PostHandler) ListPosts(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	var (
		posts []domain.Post
		total int64
		err   error
	)
	if authorID := ctx.QueryInt("author_id", 0); authorID > 0 {
		posts, total, err = h.svc.ListByAuthor(uint(authorID), page, limit)
	} else {
		posts, total, err = h.svc.List(page, limit)
	}
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	resp := dto.ListPostsResponse{
		Posts: make([]dto.PostResponse, 0, len(posts)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range posts {
		resp.Posts = append(resp.Posts, toPostResponse(&posts[i]))
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *PostHandler) GetPost(ctx *fiber.Ctx) error {
	post, err := h.svc.Get(ctx.Params("publicID"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, toPostResponse(post))
}

func (h *PostHandler) CreatePost(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.CreatePostRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Title == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "title is required")
	}

	post, err := h.svc.Create(accountID, requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, toPostResponse(post))
}

func (h *PostHandler) UpdatePost(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.UpdatePostRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	post, err := h.svc.Update(accountID, ctx.Params("publicID"), requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, toPostResponse(post))
}

func (h *PostHandler) DeletePost(ctx *fiber.Ctx) error {
	accountID, ok := ctx.Locals("accountID").(uint)
	if !ok || accountID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := ctx.Locals("role").(string)

	if err := h.svc.Delete(accountID, role, ctx.Params("publicID")); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "post deleted")
}

func toPostResponse(post *domain.Post) dto.PostResponse {
	return dto.PostResponse{
		PublicID:  post.PublicID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Body:      post.Body,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
	}
}
