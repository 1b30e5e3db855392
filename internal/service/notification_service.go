package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/events"
	"github.com/spec-kit/segnala-service/internal/notify"
	"github.com/spec-kit/segnala-service/internal/observability"
	"github.com/spec-kit/segnala-service/internal/repository"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// NotificationService emails a request update to the requester and records it on the timeline.
type NotificationService struct {
	requests   repository.RequestRepository
	recorder   *TimelineRecorder
	channel    notify.Channel
	dispatcher events.Dispatcher
	clock      clockwork.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	RequestRepo repository.RequestRepository
	Recorder    *TimelineRecorder
	Channel     notify.Channel
	Dispatcher  events.Dispatcher
	Clock       clockwork.Clock
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NotifyResult describes a delivered notification.
type NotifyResult struct {
	Recipient string
	Subject   string
	Event     *domain.TimelineEvent
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		requests:   deps.RequestRepo,
		recorder:   deps.Recorder,
		channel:    deps.Channel,
		dispatcher: deps.Dispatcher,
		clock:      clock,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Notify sends note to the requester. The timeline gets "Email inviata" only after the
// channel accepted the message; stato is never touched.
func (n *NotificationService) Notify(ctx context.Context, actor domain.Actor, requestID, note string) (*NotifyResult, error) {
	if !actor.IsAdmin() {
		return nil, n.fail(apperrors.NewRoleRequired(string(domain.RoleAdmin)))
	}
	if strings.TrimSpace(note) == "" {
		return nil, n.fail(apperrors.NewValidationError("note is required", nil))
	}

	req, err := n.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, n.fail(notFound(err, requestID))
	}
	to := req.RecipientEmail()
	if to == "" {
		return nil, n.fail(apperrors.NewNoRecipient(requestID))
	}

	recipientName := to
	if req.Requester != nil && req.Requester.FullName() != "" {
		recipientName = req.Requester.FullName()
	}
	email, err := notify.BuildUpdateEmail(to, notify.UpdateMessage{
		RecipientName: recipientName,
		Titolo:        req.Titolo,
		Note:          note,
	})
	if err != nil {
		return nil, n.fail(apperrors.NewInternalError(err))
	}

	if err := n.channel.Send(ctx, email); err != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("request_id", requestID),
			zap.String("recipient", to),
			zap.Error(err))
		return nil, n.fail(apperrors.NewDeliveryFailed(err))
	}

	event, err := n.recorder.Append(ctx, requestID, domain.LabelEmailInviata, domain.ByChiAdmin, domain.ColorInfo)
	if err != nil {
		n.logger.Error("email sent but timeline append failed; manual reconciliation required",
			zap.String("request_id", requestID),
			zap.String("recipient", to),
			zap.Error(err))
		return nil, n.fail(apperrors.WithDetail(err, "message_sent", true))
	}

	n.metrics.RecordOperation("notify", "ok")
	n.logger.Info("request notification sent",
		zap.String("request_id", requestID),
		zap.String("actor_id", actor.ID),
		zap.String("recipient", to))
	n.publishEvent(ctx, events.Event{
		Type:      events.EventNotificationSent,
		RequestID: requestID,
		ActorID:   actor.ID,
		Payload:   events.NotificationSentPayload{Recipient: to, Subject: email.Subject},
	})

	return &NotifyResult{Recipient: to, Subject: email.Subject, Event: event}, nil
}

func (n *NotificationService) fail(err error) error {
	n.metrics.RecordOperation("notify", apperrors.ToDomainError(err).Code)
	return err
}

func (n *NotificationService) publishEvent(ctx context.Context, event events.Event) {
	if n.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = n.clock.Now().UTC()
	if err := n.dispatcher.Publish(ctx, event); err != nil {
		n.logger.Warn("event subscriber failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
