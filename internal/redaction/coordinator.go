// Package redaction removes an account and every trace of it from the
// document store. Content the user owns is deleted; shared documents
// (messages, conversations, other people's posts) are rewritten so that
// nothing still attributes content to the removed identifier.
package redaction

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"heronnest/internal/apperrors"
	"heronnest/internal/docstore"
	"heronnest/internal/identity"
	"heronnest/internal/metrics"
	"heronnest/internal/models"
	"heronnest/internal/storage"
)

const defaultConcurrency = 16

type Coordinator struct {
	store       docstore.Store
	blobs       storage.Storage
	identity    identity.Provider
	concurrency int
	logger      *logrus.Logger
	metrics     *metrics.Metrics
}

// NewCoordinator builds a coordinator that runs at most concurrency
// sub-operations of a step at once. A non-positive value uses the default.
func NewCoordinator(store docstore.Store, blobs storage.Storage, idp identity.Provider, concurrency int, logger *logrus.Logger, m *metrics.Metrics) *Coordinator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Coordinator{
		store:       store,
		blobs:       blobs,
		identity:    idp,
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}
}

// sweep pairs a query with the operation applied to each matched document.
type sweep struct {
	query docstore.Query
	apply func(ctx context.Context, doc docstore.Document) []Result
}

// PurgeAccount deletes or redacts everything userID owns or appears in, then
// the profile, then the identity. It may be re-run after any failure: every
// step treats zero matches as success.
//
// The returned outcome is non-nil whenever a step ran, including on error.
// Errors carry an apperrors code: UNAVAILABLE when a query of the content
// steps failed or an owned post had to be kept (profile and identity are
// then left alone), INTERNAL when the
// profile or identity could not be deleted, and REQUIRES_RECENT_LOGIN when
// the identity provider wants a fresh sign-in.
func (c *Coordinator) PurgeAccount(ctx context.Context, userID string) (*Outcome, error) {
	if err := c.authorize(ctx, userID); err != nil {
		return nil, err
	}

	log := c.logger.WithField("user_id", userID)
	log.Info("account purge started")

	outcome := &Outcome{UserID: userID}
	for _, step := range []Step{StepEvents, StepPosts, StepLikes, StepComments, StepMessages, StepConversations} {
		outcome.Steps = append(outcome.Steps, c.runStep(ctx, userID, step, c.sweeps(userID, step)...))
	}

	if err := outcome.incomplete(); err != nil {
		log.WithError(err).Warn("account purge incomplete, profile and identity kept")
		c.metrics.PurgeRuns.WithLabelValues("incomplete").Inc()
		return outcome, apperrors.Wrap(apperrors.CodeUnavailable, "account purge incomplete, retry", err)
	}

	profile := c.finalStep(ctx, userID, StepProfile, docstore.Doc(models.CollectionUsers, userID), func(ctx context.Context) error {
		return c.store.Delete(ctx, docstore.Doc(models.CollectionUsers, userID))
	})
	outcome.Steps = append(outcome.Steps, profile)
	if profile.Results[0].Err != nil {
		outcome.FailedStep = StepProfile
		c.metrics.PurgeRuns.WithLabelValues("failed").Inc()
		return outcome, apperrors.Internal("failed to delete profile", profile.Results[0].Err)
	}

	err := c.deleteIdentity(ctx, userID, outcome)
	if err != nil {
		return outcome, err
	}

	log.WithField("ignored", len(outcome.Ignored())).Info("account purge finished")
	return outcome, nil
}

// DeleteIdentity runs only the identity step. It is the retry path when a
// purge got as far as deleting the profile but the identity deletion failed.
func (c *Coordinator) DeleteIdentity(ctx context.Context, userID string) (*Outcome, error) {
	if err := c.authorize(ctx, userID); err != nil {
		return nil, err
	}

	outcome := &Outcome{UserID: userID}
	if err := c.deleteIdentity(ctx, userID, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (c *Coordinator) authorize(ctx context.Context, userID string) error {
	principal, err := c.identity.CurrentPrincipal(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "not signed in", err)
	}
	if principal.ID != userID {
		return apperrors.Forbidden("an account can only be deleted by its owner")
	}
	return nil
}

func (c *Coordinator) deleteIdentity(ctx context.Context, userID string, outcome *Outcome) error {
	step := c.finalStep(ctx, userID, StepIdentity, userID, c.identity.DeletePrincipal)
	outcome.Steps = append(outcome.Steps, step)

	err := step.Results[0].Err
	switch {
	case err == nil:
		c.metrics.PurgeRuns.WithLabelValues("ok").Inc()
		return nil
	case errors.Is(err, identity.ErrRequiresRecentLogin):
		outcome.FailedStep = StepIdentity
		c.metrics.PurgeRuns.WithLabelValues("reauth").Inc()
		return apperrors.RequiresRecentLogin(err)
	default:
		outcome.FailedStep = StepIdentity
		c.metrics.PurgeRuns.WithLabelValues("failed").Inc()
		return apperrors.Internal("failed to delete identity", err)
	}
}

func (c *Coordinator) sweeps(userID string, step Step) []sweep {
	switch step {
	case StepEvents:
		return []sweep{{
			query: docstore.From(models.CollectionEvents).Where(models.FieldCreatedBy, docstore.OpEqual, userID),
			apply: c.deleteDoc,
		}}
	case StepPosts:
		return []sweep{{
			query: docstore.From(models.CollectionPosts).Where(models.FieldUserID, docstore.OpEqual, userID),
			apply: c.purgePost,
		}}
	case StepLikes:
		return []sweep{{
			query: docstore.From(models.CollectionPosts).Where(models.FieldLikes, docstore.OpArrayContains, userID),
			apply: c.update(func(docstore.Document) []docstore.Update {
				return []docstore.Update{{Path: models.FieldLikes, Value: docstore.ArrayRemove(userID)}}
			}),
		}}
	case StepComments:
		return []sweep{{
			query: docstore.CollectionGroup(models.CollectionComments).Where(models.FieldUserID, docstore.OpEqual, userID),
			apply: c.deleteDoc,
		}}
	case StepMessages:
		return []sweep{
			{
				query: docstore.From(models.CollectionMessages).Where(models.FieldSenderID, docstore.OpEqual, userID),
				apply: c.update(func(docstore.Document) []docstore.Update {
					return []docstore.Update{
						{Path: models.FieldSenderID, Value: models.DeletedUserID},
						{Path: models.FieldText, Value: models.DeletedMessageText},
					}
				}),
			},
			{
				query: docstore.From(models.CollectionMessages).Where(models.FieldRecipientID, docstore.OpEqual, userID),
				apply: c.update(func(docstore.Document) []docstore.Update {
					return []docstore.Update{
						{Path: models.FieldRecipientID, Value: models.DeletedUserID},
						{Path: models.FieldRead, Value: true},
					}
				}),
			},
		}
	case StepConversations:
		return []sweep{{
			query: docstore.From(models.CollectionConversations).Where(models.FieldParticipants, docstore.OpArrayContains, userID),
			apply: c.update(func(doc docstore.Document) []docstore.Update {
				return redactConversation(doc, userID)
			}),
		}}
	}
	return nil
}

// redactConversation swaps userID's participant slot for the sentinel,
// keeping both slots, and scrubs the preview if userID sent it.
// Participants is rewritten whole from the snapshot: ArrayRemove/ArrayUnion
// cannot replace an element in place, and clients rely on slot order. Nothing
// else modifies participants after creation.
func redactConversation(doc docstore.Document, userID string) []docstore.Update {
	participants := docstore.Strings(doc.Data, models.FieldParticipants)
	for i, p := range participants {
		if p == userID {
			participants[i] = models.DeletedUserID
		}
	}

	updates := []docstore.Update{
		{Path: models.FieldParticipants, Value: participants},
		{Path: models.FieldDeletedParticipants, Value: docstore.ArrayUnion(userID)},
	}
	if docstore.String(doc.Data, models.FieldLastMessageSender) == userID {
		updates = append(updates,
			docstore.Update{Path: models.FieldLastMessage, Value: models.DeletedMessageText},
			docstore.Update{Path: models.FieldLastMessageSender, Value: models.DeletedUserID},
		)
	}
	if counts := docstore.Map(doc.Data, models.FieldUnreadCount); counts != nil {
		updates = append(updates, docstore.Update{Path: models.FieldUnreadCount + "." + userID, Value: docstore.DeleteField})
	}
	return updates
}

// purgePost deletes the post image, the comments and then the post. The
// image is best effort. When a comment survives, or the post itself cannot be
// deleted, the post is kept and its result wraps ErrPostKept, which holds
// back the profile and identity steps until a retry removes it.
func (c *Coordinator) purgePost(ctx context.Context, doc docstore.Document) []Result {
	var results []Result

	if path := c.imagePath(doc.Data); path != "" {
		err := c.blobs.Delete(ctx, path)
		if err != nil {
			err = fmt.Errorf("failed to delete post image: %w", err)
		}
		results = append(results, Result{Target: path, Err: err})
	}

	comments, err := c.store.Find(ctx, docstore.From(docstore.Sub(doc.Path, models.CollectionComments)))
	if err != nil {
		return append(results, Result{Target: doc.Path, Err: fmt.Errorf("failed to list comments: %w", err)})
	}

	var failed []error
	for _, comment := range comments {
		if err := c.store.Delete(ctx, comment.Path); err != nil {
			failed = append(failed, err)
		}
		results = append(results, Result{Target: comment.Path, Err: err})
	}
	if len(failed) > 0 {
		err := fmt.Errorf("%w, %d comments left: %w", ErrPostKept, len(failed), errors.Join(failed...))
		return append(results, Result{Target: doc.Path, Err: err})
	}

	if err := c.store.Delete(ctx, doc.Path); err != nil {
		return append(results, Result{Target: doc.Path, Err: fmt.Errorf("%w: %w", ErrPostKept, err)})
	}
	return append(results, Result{Target: doc.Path})
}

// imagePath prefers the stored object path and falls back to parsing the
// download URL of posts written before the path was stored.
func (c *Coordinator) imagePath(data map[string]any) string {
	if path := docstore.String(data, models.FieldImagePath); path != "" {
		return path
	}
	url := docstore.String(data, models.FieldImageURL)
	if url == "" {
		return ""
	}
	path, err := c.blobs.ObjectPath(url)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("cannot resolve post image")
		return ""
	}
	return path
}

func (c *Coordinator) deleteDoc(ctx context.Context, doc docstore.Document) []Result {
	return []Result{{Target: doc.Path, Err: c.store.Delete(ctx, doc.Path)}}
}

func (c *Coordinator) update(build func(docstore.Document) []docstore.Update) func(context.Context, docstore.Document) []Result {
	return func(ctx context.Context, doc docstore.Document) []Result {
		return []Result{{Target: doc.Path, Err: c.store.Update(ctx, doc.Path, build(doc))}}
	}
}

// runStep lists the documents of every sweep and applies the sweep's
// operation to each of them, at most c.concurrency at a time. It returns once
// all have settled.
func (c *Coordinator) runStep(ctx context.Context, userID string, step Step, sweeps ...sweep) BatchOutcome {
	log := c.logger.WithFields(logrus.Fields{"user_id": userID, "step": step.String()})
	out := BatchOutcome{Step: step}

	type job struct {
		doc   docstore.Document
		apply func(ctx context.Context, doc docstore.Document) []Result
	}
	var jobs []job
	for _, s := range sweeps {
		docs, err := c.store.Find(ctx, s.query)
		if err != nil {
			log.WithError(err).WithField("collection", s.query.Collection).Warn("purge query failed")
			out.QueryErr = errors.Join(out.QueryErr, fmt.Errorf("%s: %w", step, err))
			continue
		}
		for _, doc := range docs {
			jobs = append(jobs, job{doc: doc, apply: s.apply})
		}
	}
	out.Matched = len(jobs)

	perJob := make([][]Result, len(jobs))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			perJob[i] = j.apply(ctx, j.doc)
		}()
	}
	wg.Wait()

	out.Results = slices.Concat(perJob...)
	c.record(log, step, out.Results, false)
	return out
}

// finalStep runs one of the fatal single-operation steps.
func (c *Coordinator) finalStep(ctx context.Context, userID string, step Step, target string, op func(ctx context.Context) error) BatchOutcome {
	log := c.logger.WithFields(logrus.Fields{"user_id": userID, "step": step.String()})
	results := []Result{{Target: target, Err: op(ctx)}}
	c.record(log, step, results, true)
	return BatchOutcome{Step: step, Matched: 1, Results: results}
}

func (c *Coordinator) record(log *logrus.Entry, step Step, results []Result, fatal bool) {
	for _, r := range results {
		switch {
		case r.Err != nil && fatal:
			c.metrics.PurgeOperations.WithLabelValues(step.String(), "failed").Inc()
			log.WithError(r.Err).WithField("target", r.Target).Error("purge step failed")
			continue
		case r.Err != nil:
			c.metrics.PurgeOperations.WithLabelValues(step.String(), "ignored").Inc()
			log.WithError(r.Err).WithField("target", r.Target).Warn("purge operation failed")
			continue
		}
		c.metrics.PurgeOperations.WithLabelValues(step.String(), "ok").Inc()
	}
	log.WithField("count", len(results)).Debug("purge step settled")
}
