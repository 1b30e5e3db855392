package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/notify"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

type notifyFixture struct {
	store   *memStore
	channel *mockChannel
	svc     *NotificationService
}

func newNotifyFixture(t *testing.T, requestEmail *string, profileEmail string) *notifyFixture {
	t.Helper()
	store := newMemStore()
	store.addProfile(domain.Profile{ID: "user-1", Nome: "Mario", Cognome: "Rossi", Email: profileEmail})
	store.addRequest(domain.Request{
		ID:          "r1",
		UserID:      "user-1",
		Titolo:      "Export <PDF>",
		Descrizione: "d",
		Stato:       domain.StatusPresa,
		Email:       requestEmail,
		CreatedAt:   baseTime,
	})
	clock := clockwork.NewFakeClockAt(baseTime)
	channel := &mockChannel{}

	return &notifyFixture{
		store:   store,
		channel: channel,
		svc: NewNotificationService(NotificationDependencies{
			RequestRepo: memRequests{store: store},
			Recorder:    NewTimelineRecorder(memTimeline{store: store}, clock),
			Channel:     channel,
			Clock:       clock,
			Logger:      nopLogger,
		}),
	}
}

func TestNotificationService_Notify(t *testing.T) {
	contact := "referente@example.it"
	f := newNotifyFixture(t, &contact, "mario@example.it")

	result, err := f.svc.Notify(context.Background(), adminActor, "r1", "Abbiamo rilasciato la correzione.\nGrazie")
	require.NoError(t, err)

	assert.Equal(t, contact, result.Recipient)
	require.Len(t, f.channel.sent, 1)
	sent := f.channel.sent[0]
	assert.Equal(t, "Aggiornamento richiesta: Export <PDF>", sent.Subject)
	assert.Contains(t, sent.HTMLBody, "Mario Rossi")
	assert.Contains(t, sent.HTMLBody, "Export &lt;PDF&gt;")
	assert.Contains(t, sent.HTMLBody, "correzione.<br/>Grazie")

	evs := f.store.eventsFor("r1")
	require.Len(t, evs, 1)
	assert.Equal(t, domain.LabelEmailInviata, evs[0].Label)
	assert.Equal(t, domain.ByChiAdmin, evs[0].ByChi)
	assert.Equal(t, domain.ColorInfo, evs[0].Colore)
	assert.Equal(t, domain.StatusPresa, f.store.request("r1").Stato)
}

func TestNotificationService_FallsBackToProfileEmail(t *testing.T) {
	f := newNotifyFixture(t, nil, "mario@example.it")

	result, err := f.svc.Notify(context.Background(), adminActor, "r1", "ok")
	require.NoError(t, err)
	assert.Equal(t, "mario@example.it", result.Recipient)
}

func TestNotificationService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		id      string
		note    string
		profile string
		wantErr error
	}{
		{name: "empty note", actor: adminActor, id: "r1", note: "", profile: "mario@example.it", wantErr: apperrors.ErrValidationFailed},
		{name: "blank note", actor: adminActor, id: "r1", note: " \n ", profile: "mario@example.it", wantErr: apperrors.ErrValidationFailed},
		{name: "requester role", actor: requesterActor, id: "r1", note: "x", profile: "mario@example.it", wantErr: apperrors.ErrValidationFailed},
		{name: "no recipient", actor: adminActor, id: "r1", note: "x", profile: "", wantErr: apperrors.ErrNoRecipient},
		{name: "unknown request", actor: adminActor, id: "nope", note: "x", profile: "mario@example.it", wantErr: apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNotifyFixture(t, nil, tt.profile)

			_, err := f.svc.Notify(context.Background(), tt.actor, tt.id, tt.note)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.channel.sent)
			assert.Empty(t, f.store.eventsFor("r1"))
		})
	}
}

func TestNotificationService_DeliveryFailure(t *testing.T) {
	f := newNotifyFixture(t, nil, "mario@example.it")
	f.channel.SendFunc = func(ctx context.Context, email notify.Email) error {
		return errors.New("smtp 421")
	}

	_, err := f.svc.Notify(context.Background(), adminActor, "r1", "aggiornamento")

	assert.ErrorIs(t, err, apperrors.ErrDeliveryFailed)
	assert.NotErrorIs(t, err, apperrors.ErrAppendFailed)
	assert.Equal(t, 502, apperrors.ToDomainError(err).HTTPStatus)
	assert.Empty(t, f.store.eventsFor("r1"))
}

func TestNotificationService_SentButAppendFails(t *testing.T) {
	f := newNotifyFixture(t, nil, "mario@example.it")
	f.store.appendErr = errStoreDown

	_, err := f.svc.Notify(context.Background(), adminActor, "r1", "aggiornamento")

	require.ErrorIs(t, err, apperrors.ErrAppendFailed)
	assert.Equal(t, true, apperrors.ToDomainError(err).Details["message_sent"])
	assert.Len(t, f.channel.sent, 1)
	assert.Empty(t, f.store.eventsFor("r1"))
}
