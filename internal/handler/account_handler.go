package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"heronnest/internal/redaction"
)

// DeleteAccount purges everything the caller left behind, then their
// profile and sign-in identity. A 401 with REQUIRES_RECENT_LOGIN means the
// content is gone and DELETE /api/account/identity finishes the job after a
// fresh login. A 503 means the purge can simply be retried.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	// A client hanging up must not stop a purge halfway through.
	outcome, err := h.AccountService.DeleteAccount(context.WithoutCancel(r.Context()), session.UserID)
	h.logOutcome(session.UserID, outcome, err)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteIdentity(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	outcome, err := h.AccountService.RetryIdentityDeletion(context.WithoutCancel(r.Context()), session.UserID)
	h.logOutcome(session.UserID, outcome, err)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) logOutcome(userID string, outcome *redaction.Outcome, err error) {
	log := h.Logger.WithField("user_id", userID)
	if outcome != nil {
		log = log.WithFields(logrus.Fields{
			"steps":   len(outcome.Steps),
			"ignored": len(outcome.Ignored()),
		})
		if outcome.FailedStep != 0 {
			log = log.WithField("failed_step", outcome.FailedStep.String())
		}
	}

	if err != nil {
		log.WithError(err).Warn("account deletion did not finish")
		return
	}
	log.Info("account deleted")
}
