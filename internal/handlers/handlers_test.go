package handlers

import (
	"context"
	"errors"
	"testing"

	"bharosepe/internal/models"
)

type fakeNotifier struct {
	failWith  error
	delivered []models.Notification
}

func (f *fakeNotifier) Dispatch(ctx context.Context, notifications []models.Notification) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.delivered = append(f.delivered, notifications...)
	return nil
}

func (f *fakeNotifier) Notify(ctx context.Context, n models.Notification) error {
	return f.Dispatch(ctx, []models.Notification{n})
}

func (f *fakeNotifier) PublishDisputeMessage(recipients []uint, msg models.DisputeMessage) {}

func TestNotifyBestEffortDelivers(t *testing.T) {
	fake := &fakeNotifier{}
	notifier = fake

	n := models.Notification{UserID: 7, Type: models.NotificationProposalCreated}
	if !notifyBestEffort(context.Background(), n, nil) {
		t.Error("successful delivery reported as failed")
	}
	if len(fake.delivered) != 1 || fake.delivered[0].UserID != 7 {
		t.Errorf("delivered %v, want the single notification for user 7", fake.delivered)
	}
}

func TestNotifyBestEffortReportsDispatchFailure(t *testing.T) {
	fake := &fakeNotifier{failWith: errors.New("insert failed")}
	notifier = fake

	n := models.Notification{UserID: 7, Type: models.NotificationProposalAccepted}
	if notifyBestEffort(context.Background(), n, nil) {
		t.Error("failed dispatch reported as delivered")
	}
}

func TestNotifyBestEffortReportsBuildFailure(t *testing.T) {
	fake := &fakeNotifier{}
	notifier = fake

	if notifyBestEffort(context.Background(), models.Notification{}, errors.New("no counterparty")) {
		t.Error("build failure reported as delivered")
	}
	if len(fake.delivered) != 0 {
		t.Errorf("dispatched %d notifications despite a build failure", len(fake.delivered))
	}
}

func TestRespondedUpdateFailed(t *testing.T) {
	cases := []struct {
		name string
		err  error
		rows int64
		want bool
	}{
		{"written", nil, 1, false},
		{"lost race", nil, 0, true},
		{"database error", errors.New("connection reset"), 0, true},
		{"error with rows", errors.New("connection reset"), 1, true},
	}
	for _, tc := range cases {
		if got := respondedUpdateFailed(tc.err, tc.rows); got != tc.want {
			t.Errorf("%s: respondedUpdateFailed(%v, %d) = %v, want %v",
				tc.name, tc.err, tc.rows, got, tc.want)
		}
	}
}

func TestSendMessageRequestTypeIsClosedSet(t *testing.T) {
	for _, mt := range []string{"", "text", "file", "image"} {
		req := SendMessageRequest{Body: "hello", MessageType: mt}
		if err := validate.Struct(&req); err != nil {
			t.Errorf("message_type %q rejected: %v", mt, err)
		}
	}
	for _, mt := range []string{"voice", "TEXT", "gif"} {
		req := SendMessageRequest{Body: "hello", MessageType: mt}
		if err := validate.Struct(&req); err == nil {
			t.Errorf("message_type %q accepted, want validation error", mt)
		}
	}
}

func TestTagPrefix(t *testing.T) {
	cases := []struct {
		fullName string
		want     string
	}{
		{"Ravi Kumar", "ravi"},
		{"Priyadarshini Rao", "priyadar"},
		{"R2-D2 Repairs", "r2d2"},
		{"", "user"},
		{"   ", "user"},
		{"!!! ???", "user"},
	}
	for _, tc := range cases {
		if got := tagPrefix(tc.fullName); got != tc.want {
			t.Errorf("tagPrefix(%q) = %q, want %q", tc.fullName, got, tc.want)
		}
	}
}
