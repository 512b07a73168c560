package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"heronnest/internal/apperrors"
	"heronnest/internal/models"
	"heronnest/internal/notify"
	"heronnest/internal/repository"
	"heronnest/internal/storage"
)

type CreatePostRequest struct {
	AuthorID    string       `json:"-" validate:"required"`
	AuthorEmail string       `json:"-"`
	Text        string       `json:"text" validate:"max=5000"`
	Image       *ImageUpload `json:"-"`
}

type UpdatePostRequest struct {
	PostID string `json:"-" validate:"required"`
	UserID string `json:"-" validate:"required"`
	Text   string `json:"text" validate:"max=5000"`
}

type AddCommentRequest struct {
	PostID      string `json:"-" validate:"required"`
	AuthorID    string `json:"-" validate:"required"`
	AuthorEmail string `json:"-"`
	Text        string `json:"text" validate:"required,max=2000"`
}

type PostService interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, req UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, postID, userID string) error
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, req AddCommentRequest) (*models.Comment, error)
	ListPosts(ctx context.Context) ([]*models.Post, error)
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
	WatchPosts(ctx context.Context) *repository.Stream[*models.Post]
	WatchComments(ctx context.Context, postID string) *repository.Stream[*models.Comment]
}

type postService struct {
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	blobs    storage.Storage
	notifier notify.Notifier
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

func NewPostService(posts repository.PostRepository, profiles repository.ProfileRepository, blobs storage.Storage,
	notifier notify.Notifier, validate *validator.Validate, logger *logrus.Logger, now func() time.Time) PostService {
	return &postService{
		posts:    posts,
		profiles: profiles,
		blobs:    blobs,
		notifier: notifier,
		validate: validate,
		logger:   logger,
		now:      now,
	}
}

// CreatePost stores the post, then uploads its image under the new post id,
// then tells everyone else about it.
func (p *postService) CreatePost(ctx context.Context, req CreatePostRequest) (*models.Post, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateRequest(p.validate, req); err != nil {
		return nil, err
	}
	if req.Text == "" && req.Image == nil {
		return nil, apperrors.InvalidArg("a post needs text or an image")
	}

	author, err := authorSnapshot(ctx, p.profiles, req.AuthorID, req.AuthorEmail)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Author: author, Text: req.Text}
	if err := p.posts.Create(ctx, post); err != nil {
		return nil, apperrors.Internal("failed to create post", err)
	}

	if req.Image != nil {
		if err := p.attachImage(ctx, post, req.Image); err != nil {
			if delErr := p.posts.Delete(ctx, post.PostID); delErr != nil {
				p.logger.WithError(delErr).WithField("post_id", post.PostID).Warn("failed to remove post after image upload failure")
			}
			return nil, err
		}
	}

	p.announce(ctx, post)
	return post, nil
}

func (p *postService) attachImage(ctx context.Context, post *models.Post, image *ImageUpload) error {
	path := storage.PostImagePath(post.PostID, p.now())

	url, err := p.blobs.Upload(ctx, path, image.ContentType, image.Reader, image.Size)
	if err != nil {
		return apperrors.Internal("failed to upload post image", err)
	}

	if err := p.posts.SetImage(ctx, post.PostID, url, path); err != nil {
		if delErr := p.blobs.Delete(ctx, path); delErr != nil {
			p.logger.WithError(delErr).WithField("path", path).Warn("failed to remove orphaned image")
		}
		return apperrors.Internal("failed to attach post image", err)
	}

	post.ImageURL = url
	post.ImagePath = path
	return nil
}

func (p *postService) announce(ctx context.Context, post *models.Post) {
	ids, err := p.profiles.ListIDs(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("failed to list users for post notification")
		return
	}

	preview := notify.Preview(post.Text, previewLength)
	if preview == "" {
		preview = "📷 shared a photo"
	}
	p.notifier.Notify(ctx, without(ids, post.Author.UserID), "New Nest Note",
		post.Author.DisplayName+" posted: "+preview, models.CategoryNestNotes)
}

func (p *postService) ownedPost(ctx context.Context, postID, userID string) (*models.Post, error) {
	post, err := p.posts.Get(ctx, postID)
	if err != nil {
		return nil, storeError(err, "post")
	}
	if post.Author.UserID != userID {
		return nil, apperrors.Forbidden("only the author can change this post")
	}
	return post, nil
}

func (p *postService) UpdatePost(ctx context.Context, req UpdatePostRequest) (*models.Post, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateRequest(p.validate, req); err != nil {
		return nil, err
	}

	post, err := p.ownedPost(ctx, req.PostID, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Text == "" && post.ImageURL == "" {
		return nil, apperrors.InvalidArg("a post needs text or an image")
	}

	if err := p.posts.UpdateText(ctx, post.PostID, req.Text); err != nil {
		return nil, apperrors.Internal("failed to update post", err)
	}

	updated, err := p.posts.Get(ctx, post.PostID)
	if err != nil {
		return nil, storeError(err, "post")
	}
	return updated, nil
}

// DeletePost removes the comments first so a failure never leaves comments
// under a missing post. The image is removed best effort.
func (p *postService) DeletePost(ctx context.Context, postID, userID string) error {
	post, err := p.ownedPost(ctx, postID, userID)
	if err != nil {
		return err
	}

	if err := p.posts.DeleteComments(ctx, postID); err != nil {
		return apperrors.Internal("failed to delete comments", err)
	}

	if path := p.imagePath(post); path != "" {
		if err := p.blobs.Delete(ctx, path); err != nil {
			p.logger.WithError(err).WithField("path", path).Warn("failed to delete post image")
		}
	}

	if err := p.posts.Delete(ctx, postID); err != nil {
		return apperrors.Internal("failed to delete post", err)
	}
	return nil
}

func (p *postService) imagePath(post *models.Post) string {
	if post.ImagePath != "" {
		return post.ImagePath
	}
	if post.ImageURL == "" {
		return ""
	}
	path, err := p.blobs.ObjectPath(post.ImageURL)
	if err != nil {
		p.logger.WithError(err).WithField("post_id", post.PostID).Warn("cannot resolve post image path")
		return ""
	}
	return path
}

// ToggleLike flips the caller's like and reports whether the post is now liked.
func (p *postService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	post, err := p.posts.Get(ctx, postID)
	if err != nil {
		return false, storeError(err, "post")
	}

	if slices.Contains(post.Likes, userID) {
		if err := p.posts.RemoveLike(ctx, postID, userID); err != nil {
			return true, apperrors.Internal("failed to unlike post", err)
		}
		return false, nil
	}

	if err := p.posts.AddLike(ctx, postID, userID); err != nil {
		return false, apperrors.Internal("failed to like post", err)
	}
	return true, nil
}

func (p *postService) AddComment(ctx context.Context, req AddCommentRequest) (*models.Comment, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateRequest(p.validate, req); err != nil {
		return nil, err
	}

	post, err := p.posts.Get(ctx, req.PostID)
	if err != nil {
		return nil, storeError(err, "post")
	}

	author, err := authorSnapshot(ctx, p.profiles, req.AuthorID, req.AuthorEmail)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:    req.PostID,
		Author:    author,
		Text:      req.Text,
		CreatedAt: p.now(),
	}
	if err := p.posts.AddComment(ctx, comment); err != nil {
		return nil, apperrors.Internal("failed to add comment", err)
	}

	if post.Author.UserID != req.AuthorID {
		p.notifier.Notify(ctx, []string{post.Author.UserID}, "New comment",
			author.DisplayName+" commented: "+notify.Preview(comment.Text, previewLength), models.CategoryNestNotes)
	}
	return comment, nil
}

func (p *postService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := p.posts.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list posts", err)
	}
	return posts, nil
}

func (p *postService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := p.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, apperrors.Internal("failed to list comments", err)
	}
	return comments, nil
}

func (p *postService) WatchPosts(ctx context.Context) *repository.Stream[*models.Post] {
	return p.posts.Watch(ctx)
}

func (p *postService) WatchComments(ctx context.Context, postID string) *repository.Stream[*models.Comment] {
	return p.posts.WatchComments(ctx, postID)
}
