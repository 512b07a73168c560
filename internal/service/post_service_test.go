package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"heronnest/internal/apperrors"
	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

func TestPostService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.posts()

	f.notifier.On("Notify", mock.Anything, []string{"ben", "cy"}, "New Nest Note", "Ana posted: hello nest", models.CategoryNestNotes).Return().Once()

	post, err := svc.CreatePost(ctx, CreatePostRequest{AuthorID: "ana", AuthorEmail: "ana@nest.test", Text: "  hello nest  "})
	require.NoError(t, err)
	assert.NotEmpty(t, post.PostID)
	assert.Equal(t, "hello nest", post.Text)
	assert.Equal(t, models.AuthorSnapshot{UserID: "ana", DisplayName: "Ana", Email: "ana@nest.test"}, post.Author)
	assert.Empty(t, post.Likes)
	assert.Zero(t, post.CommentCount)
	assert.False(t, post.CreatedAt.IsZero())

	t.Run("like toggles", func(t *testing.T) {
		liked, err := svc.ToggleLike(ctx, post.PostID, "ben")
		require.NoError(t, err)
		assert.True(t, liked)

		stored, err := f.repo.Posts.Get(ctx, post.PostID)
		require.NoError(t, err)
		assert.Equal(t, []string{"ben"}, stored.Likes)

		liked, err = svc.ToggleLike(ctx, post.PostID, "ben")
		require.NoError(t, err)
		assert.False(t, liked)

		stored, err = f.repo.Posts.Get(ctx, post.PostID)
		require.NoError(t, err)
		assert.Empty(t, stored.Likes)
	})

	t.Run("comments notify the author only", func(t *testing.T) {
		f.notifier.On("Notify", mock.Anything, []string{"ana"}, "New comment", "Ben commented: nice one", models.CategoryNestNotes).Return().Once()

		comment, err := svc.AddComment(ctx, AddCommentRequest{PostID: post.PostID, AuthorID: "ben", Text: "nice one"})
		require.NoError(t, err)
		assert.NotEmpty(t, comment.CommentID)
		assert.Equal(t, "Ben", comment.Author.DisplayName)

		_, err = svc.AddComment(ctx, AddCommentRequest{PostID: post.PostID, AuthorID: "ana", Text: "thanks"})
		require.NoError(t, err)

		_, err = svc.AddComment(ctx, AddCommentRequest{PostID: post.PostID, AuthorID: "cy", Text: "  "})
		assertCode(t, err, apperrors.CodeInvalidArgument)

		comments, err := svc.ListComments(ctx, post.PostID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "nice one", comments[0].Text)
		assert.Equal(t, "thanks", comments[1].Text)

		stored, err := f.repo.Posts.Get(ctx, post.PostID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.CommentCount)
	})

	t.Run("only the author edits", func(t *testing.T) {
		_, err := svc.UpdatePost(ctx, UpdatePostRequest{PostID: post.PostID, UserID: "ben", Text: "mine now"})
		assertCode(t, err, apperrors.CodePermissionDenied)

		updated, err := svc.UpdatePost(ctx, UpdatePostRequest{PostID: post.PostID, UserID: "ana", Text: "hello again"})
		require.NoError(t, err)
		assert.Equal(t, "hello again", updated.Text)
		assert.NotNil(t, updated.EditedAt)

		_, err = svc.UpdatePost(ctx, UpdatePostRequest{PostID: post.PostID, UserID: "ana", Text: ""})
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})

	t.Run("only the author deletes", func(t *testing.T) {
		assertCode(t, svc.DeletePost(ctx, post.PostID, "ben"), apperrors.CodePermissionDenied)

		require.NoError(t, svc.DeletePost(ctx, post.PostID, "ana"))

		_, err := f.repo.Posts.Get(ctx, post.PostID)
		assert.ErrorIs(t, err, docstore.ErrNotFound)

		comments, err := f.repo.Posts.ListComments(ctx, post.PostID)
		require.NoError(t, err)
		assert.Empty(t, comments)

		assertCode(t, svc.DeletePost(ctx, post.PostID, "ana"), apperrors.CodeNotFound)
	})

	f.notifier.AssertExpectations(t)
	f.blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("needs text or image", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.posts().CreatePost(ctx, CreatePostRequest{AuthorID: "ana", Text: "   "})
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})

	t.Run("image post", func(t *testing.T) {
		f := newFixture(t)
		svc := f.posts()

		var uploaded string
		f.blobs.On("Upload", mock.Anything, mock.MatchedBy(func(p string) bool { return strings.HasPrefix(p, "posts/") }),
			"image/jpeg", mock.Anything, int64(3)).
			Run(func(args mock.Arguments) { uploaded = args.String(1) }).
			Return("http://blobs/heronnest/posts/p.jpg", nil)
		f.notifier.On("Notify", mock.Anything, []string{"ben", "cy"}, "New Nest Note", "Ana posted: 📷 shared a photo", models.CategoryNestNotes).Return()

		post, err := svc.CreatePost(ctx, CreatePostRequest{
			AuthorID: "ana",
			Image:    &ImageUpload{ContentType: "image/jpeg", Reader: strings.NewReader("jpg"), Size: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, "http://blobs/heronnest/posts/p.jpg", post.ImageURL)
		assert.True(t, strings.HasPrefix(uploaded, "posts/"+post.PostID+"/"))

		stored, err := f.repo.Posts.Get(ctx, post.PostID)
		require.NoError(t, err)
		assert.Equal(t, uploaded, stored.ImagePath)

		f.blobs.On("Delete", mock.Anything, uploaded).Return(errors.New("already gone"))
		require.NoError(t, svc.DeletePost(ctx, post.PostID, "ana"))

		_, err = f.repo.Posts.Get(ctx, post.PostID)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
		f.blobs.AssertExpectations(t)
	})

	t.Run("failed upload removes the post", func(t *testing.T) {
		f := newFixture(t)
		svc := f.posts()

		f.blobs.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("blob store down"))

		_, err := svc.CreatePost(ctx, CreatePostRequest{
			AuthorID: "ana",
			Text:     "look",
			Image:    &ImageUpload{ContentType: "image/jpeg", Reader: strings.NewReader("jpg"), Size: 3},
		})
		assertCode(t, err, apperrors.CodeInternal)

		posts, err := svc.ListPosts(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("author without profile", func(t *testing.T) {
		f := newFixture(t)
		svc := f.posts()

		text := strings.Repeat("a", 60)
		f.notifier.On("Notify", mock.Anything, []string{"ana", "ben", "cy"}, "New Nest Note",
			"dee posted: "+strings.Repeat("a", 50)+"...", models.CategoryNestNotes).Return().Once()

		post, err := svc.CreatePost(ctx, CreatePostRequest{AuthorID: "dee", AuthorEmail: "dee@nest.test", Text: text})
		require.NoError(t, err)
		assert.Equal(t, "dee", post.Author.DisplayName)
		assert.Equal(t, "dee@nest.test", post.Author.Email)
		f.notifier.AssertExpectations(t)
	})

	t.Run("legacy image url is resolved on delete", func(t *testing.T) {
		f := newFixture(t)
		svc := f.posts()
		f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

		post, err := svc.CreatePost(ctx, CreatePostRequest{AuthorID: "ana", Text: "old"})
		require.NoError(t, err)
		require.NoError(t, f.store.Update(ctx, docstore.Doc(models.CollectionPosts, post.PostID), []docstore.Update{
			{Path: models.FieldImageURL, Value: "http://blobs/heronnest/posts/old.jpg"},
		}))

		f.blobs.On("ObjectPath", "http://blobs/heronnest/posts/old.jpg").Return("posts/old.jpg", nil)
		f.blobs.On("Delete", mock.Anything, "posts/old.jpg").Return(nil)

		require.NoError(t, svc.DeletePost(ctx, post.PostID, "ana"))
		f.blobs.AssertExpectations(t)
	})
}

func TestPostService_ListPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.posts()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.CreatePost(ctx, CreatePostRequest{AuthorID: "ben", Text: text})
		require.NoError(t, err)
	}

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "third", posts[0].Text)
	assert.Equal(t, "first", posts[2].Text)

	_, err = svc.ToggleLike(ctx, "missing", "ana")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestPostService_WatchPosts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t)
	svc := f.posts()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	stream := svc.WatchPosts(ctx)
	defer stream.Stop()

	initial, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, initial)

	_, err = svc.CreatePost(ctx, CreatePostRequest{AuthorID: "ana", Text: "live"})
	require.NoError(t, err)

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()

	latest, err := stream.Next(waitCtx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "live", latest[0].Text)
}
