package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

type postRepository struct {
	store docstore.Store
}

func NewPostRepository(store docstore.Store) PostRepository {
	return &postRepository{store: store}
}

func postPath(postID string) string {
	return docstore.Doc(models.CollectionPosts, postID)
}

func commentsPath(postID string) string {
	return docstore.Sub(postPath(postID), models.CollectionComments)
}

// Create stores a new post with no likes and no comments and fills in its id
// and server-assigned creation time.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	data := map[string]any{
		models.FieldText:         post.Text,
		models.FieldLikes:        []string{},
		models.FieldCommentCount: 0,
		models.FieldCreatedAt:    docstore.ServerTimestamp,
	}
	putAuthor(data, post.Author)

	id, err := r.store.Create(ctx, models.CollectionPosts, data)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	stored, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	*post = *stored
	return nil
}

func (r *postRepository) Get(ctx context.Context, postID string) (*models.Post, error) {
	doc, err := r.store.Get(ctx, postPath(postID))
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", postID, err)
	}
	return postFromDoc(doc), nil
}

func (r *postRepository) UpdateText(ctx context.Context, postID, text string) error {
	err := r.store.Update(ctx, postPath(postID), []docstore.Update{
		{Path: models.FieldText, Value: text},
		{Path: models.FieldEditedAt, Value: docstore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", postID, err)
	}
	return nil
}

func (r *postRepository) SetImage(ctx context.Context, postID, url, path string) error {
	err := r.store.Update(ctx, postPath(postID), []docstore.Update{
		{Path: models.FieldImageURL, Value: url},
		{Path: models.FieldImagePath, Value: path},
	})
	if err != nil {
		return fmt.Errorf("failed to attach image to post %s: %w", postID, err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, postID string) error {
	if err := r.store.Delete(ctx, postPath(postID)); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", postID, err)
	}
	return nil
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, postID, docstore.ArrayUnion(userID))
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, postID, docstore.ArrayRemove(userID))
}

func (r *postRepository) updateLikes(ctx context.Context, postID string, change docstore.Transform) error {
	err := r.store.Update(ctx, postPath(postID), []docstore.Update{{Path: models.FieldLikes, Value: change}})
	if err != nil {
		return fmt.Errorf("failed to update likes of post %s: %w", postID, err)
	}
	return nil
}

func (r *postRepository) feed() docstore.Query {
	return docstore.From(models.CollectionPosts).OrderBy(models.FieldCreatedAt, docstore.Desc)
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	docs, err := r.store.Find(ctx, r.feed())
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return decodeAll(docs, postFromDoc), nil
}

func (r *postRepository) Watch(ctx context.Context) *Stream[*models.Post] {
	return newStream(r.store.Watch(ctx, r.feed()), postFromDoc)
}

// AddComment stores the comment and bumps the post's comment count.
func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	data := map[string]any{
		models.FieldText:      comment.Text,
		models.FieldCreatedAt: docstore.ServerTimestamp,
	}
	putAuthor(data, comment.Author)

	id, err := r.store.Create(ctx, commentsPath(comment.PostID), data)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	comment.CommentID = id

	err = r.store.Update(ctx, postPath(comment.PostID), []docstore.Update{
		{Path: models.FieldCommentCount, Value: docstore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("failed to update comment count: %w", err)
	}
	return nil
}

func (r *postRepository) thread(postID string) docstore.Query {
	return docstore.From(commentsPath(postID)).OrderBy(models.FieldCreatedAt, docstore.Asc)
}

func (r *postRepository) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	docs, err := r.store.Find(ctx, r.thread(postID))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return decodeAll(docs, commentFromDoc), nil
}

func (r *postRepository) WatchComments(ctx context.Context, postID string) *Stream[*models.Comment] {
	return newStream(r.store.Watch(ctx, r.thread(postID)), commentFromDoc)
}

func (r *postRepository) DeleteComments(ctx context.Context, postID string) error {
	docs, err := r.store.Find(ctx, docstore.From(commentsPath(postID)))
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	for _, doc := range docs {
		if err := r.store.Delete(ctx, doc.Path); err != nil {
			return fmt.Errorf("failed to delete comment %s: %w", doc.ID, err)
		}
	}
	return nil
}

func putAuthor(data map[string]any, a models.AuthorSnapshot) {
	data[models.FieldUserID] = a.UserID
	data[models.FieldAuthorDisplayName] = a.DisplayName
	data[models.FieldAuthorEmail] = a.Email
	data[models.FieldAuthorProfileImageURL] = a.ProfileImageURL
}

func authorFromData(d map[string]any) models.AuthorSnapshot {
	return models.AuthorSnapshot{
		UserID:          docstore.String(d, models.FieldUserID),
		DisplayName:     docstore.String(d, models.FieldAuthorDisplayName),
		Email:           docstore.String(d, models.FieldAuthorEmail),
		ProfileImageURL: docstore.String(d, models.FieldAuthorProfileImageURL),
	}
}

func optionalTime(d map[string]any, key string) *time.Time {
	t := docstore.Time(d, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func postFromDoc(doc docstore.Document) *models.Post {
	d := doc.Data
	return &models.Post{
		PostID:       doc.ID,
		Author:       authorFromData(d),
		Text:         docstore.String(d, models.FieldText),
		ImageURL:     docstore.String(d, models.FieldImageURL),
		ImagePath:    docstore.String(d, models.FieldImagePath),
		CreatedAt:    docstore.Time(d, models.FieldCreatedAt),
		EditedAt:     optionalTime(d, models.FieldEditedAt),
		Likes:        docstore.Strings(d, models.FieldLikes),
		CommentCount: docstore.Int(d, models.FieldCommentCount),
	}
}

// commentFromDoc decodes a comment; the parent post id comes from the path.
func commentFromDoc(doc docstore.Document) *models.Comment {
	d := doc.Data
	return &models.Comment{
		CommentID: doc.ID,
		PostID:    parentID(doc.Path),
		Author:    authorFromData(d),
		Text:      docstore.String(d, models.FieldText),
		CreatedAt: docstore.Time(d, models.FieldCreatedAt),
	}
}

// parentID returns the id of the document owning the subcollection that
// holds the document at path.
func parentID(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[len(parts)-3]
}
