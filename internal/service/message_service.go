package service

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/notify"
	"alcyxob/coach-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxMessageLength   = 4000
	DefaultThreadLimit = 100

	notifyTimeout = 10 * time.Second
)

var (
	ErrEmptyMessage        = errors.New("message body is empty")
	ErrMessageTooLong      = errors.New("message body is too long")
	ErrNotConversationPeer = errors.New("messages can only be exchanged between a coach and their client")
)

type MessageService interface {
	Send(ctx context.Context, sender *domain.User, counterpartID primitive.ObjectID, body string) (*domain.Message, error)
	Thread(ctx context.Context, reader *domain.User, counterpartID primitive.ObjectID, limit int64) ([]domain.Message, error)
	// Wait blocks until queued email notifications are done.
	Wait()
}

type messageService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	notifier notify.Notifier
	log      logrus.FieldLogger
	now      func() time.Time

	// pending tracks in-flight notifications so shutdown and tests can wait.
	pending sync.WaitGroup
}

func NewMessageService(users repository.UserRepository, messages repository.MessageRepository, notifier notify.Notifier, log logrus.FieldLogger) MessageService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &messageService{
		users:    users,
		messages: messages,
		notifier: notifier,
		log:      log.WithField("component", "messages"),
		now:      time.Now,
	}
}

func (s *messageService) Wait() {
	s.pending.Wait()
}

// conversation resolves the coach/client pair between user and counterpartID.
func (s *messageService) conversation(ctx context.Context, user *domain.User, counterpartID primitive.ObjectID) (coachID, clientID primitive.ObjectID, peer *domain.User, err error) {
	peer, err = s.users.GetByID(ctx, counterpartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return coachID, clientID, nil, ErrNotConversationPeer
		}
		return coachID, clientID, nil, err
	}

	switch {
	case user.IsCoach() && peer.IsClient() && peer.OwnerID() == user.ID:
		return user.ID, peer.ID, peer, nil
	case user.IsClient() && peer.IsCoach() && user.OwnerID() == peer.ID:
		return peer.ID, user.ID, peer, nil
	}
	return coachID, clientID, nil, ErrNotConversationPeer
}

func (s *messageService) Send(ctx context.Context, sender *domain.User, counterpartID primitive.ObjectID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	coachID, clientID, recipient, err := s.conversation(ctx, sender, counterpartID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{CoachID: coachID, ClientID: clientID, SenderID: sender.ID, Body: body}
	id, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = id

	s.notify(ctx, sender, recipient)
	return msg, nil
}

// notify emails the recipient in the background. The request does not wait
// for it and never fails because of it.
func (s *messageService) notify(ctx context.Context, sender, recipient *domain.User) {
	if recipient.Email == "" || !recipient.IsActive() {
		return
	}
	subject := fmt.Sprintf("New message from %s", sender.Name)
	body := fmt.Sprintf("%s sent you a new message. Sign in to read it.", sender.Name)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, recipient.Email, subject, body); err != nil {
			s.log.WithError(err).WithField("recipientId", recipient.ID.Hex()).Warn("message notification failed")
		}
	}()
}

func (s *messageService) Thread(ctx context.Context, reader *domain.User, counterpartID primitive.ObjectID, limit int64) ([]domain.Message, error) {
	coachID, clientID, _, err := s.conversation(ctx, reader, counterpartID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultThreadLimit {
		limit = DefaultThreadLimit
	}

	msgs, err := s.messages.GetThread(ctx, coachID, clientID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkRead(ctx, coachID, clientID, reader.ID, s.now()); err != nil {
		s.log.WithError(err).Warn("failed to mark messages read")
	}
	return msgs, nil
}
