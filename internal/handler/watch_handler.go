package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"heronnest/internal/models"
	"heronnest/internal/repository"
)

const (
	watchWriteTimeout = 10 * time.Second
	watchReadLimit    = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Snapshot is one websocket frame: the full current result of the watched
// query.
type Snapshot[T any] struct {
	Items []T `json:"items"`
}

// watch upgrades the request and pushes every snapshot of the stream that
// open returns until the client goes away. Client frames are read and
// dropped; a read error ends the watch.
func watch[T any](h *Handlers, w http.ResponseWriter, r *http.Request, open func(ctx context.Context) (*repository.Stream[T], error)) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream, err := open(ctx)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	defer stream.Stop()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.Logger.WithField("path", r.URL.Path)
	log.Debug("watch started")

	go func() {
		defer cancel()
		conn.SetReadLimit(watchReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Debug("watch closed unexpectedly")
				}
				return
			}
		}
	}()

	for {
		items, err := stream.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("watch stream failed")
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "stream failed"),
					time.Now().Add(watchWriteTimeout))
			}
			log.Debug("watch stopped")
			return
		}

		conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
		if err := conn.WriteJSON(Snapshot[T]{Items: items}); err != nil {
			log.WithError(err).Debug("watch write failed")
			return
		}
	}
}

func (h *Handlers) WatchPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}
	watch(h, w, r, func(ctx context.Context) (*repository.Stream[*models.Post], error) {
		return h.PostService.WatchPosts(ctx), nil
	})
}

func (h *Handlers) WatchComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}
	postID := pathID(r)
	watch(h, w, r, func(ctx context.Context) (*repository.Stream[*models.Comment], error) {
		return h.PostService.WatchComments(ctx, postID), nil
	})
}

func (h *Handlers) WatchEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}
	watch(h, w, r, func(ctx context.Context) (*repository.Stream[*models.Event], error) {
		return h.EventService.WatchEvents(ctx), nil
	})
}

func (h *Handlers) WatchConversations(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	watch(h, w, r, func(ctx context.Context) (*repository.Stream[*models.Conversation], error) {
		return h.MessageService.WatchConversations(ctx, session.UserID), nil
	})
}

func (h *Handlers) WatchMessages(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	conversationID := pathID(r)
	watch(h, w, r, func(ctx context.Context) (*repository.Stream[*models.Message], error) {
		return h.MessageService.WatchMessages(ctx, conversationID, session.UserID)
	})
}
