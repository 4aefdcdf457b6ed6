package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"anagramgame/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNotifyAssignment(t *testing.T) {
	fake := &fakeSES{}
	svc := newEmailService(fake, "noreply@example.com", "Anagram Game", "https://play.example.com")

	recipient := &models.Player{ID: 7, Username: "tess", Email: "tess@example.com"}
	phrase := &models.Phrase{ID: 3, Content: "secret birthday message", DifficultyLevel: 61}

	if err := svc.NotifyAssignment(context.Background(), recipient, phrase); err != nil {
		t.Fatalf("NotifyAssignment() error = %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(fake.inputs))
	}

	in := fake.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "Anagram Game <noreply@example.com>" {
		t.Errorf("from = %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "tess@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	if !strings.Contains(text, "3-word phrase") || !strings.Contains(text, "https://play.example.com/play") {
		t.Errorf("unexpected text body: %s", text)
	}
	for _, body := range []string{text, aws.ToString(in.Content.Simple.Body.Html.Data)} {
		if strings.Contains(body, "birthday") {
			t.Error("email body leaks the phrase content")
		}
	}
}

func TestNotifyAssignmentErrors(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	svc := newEmailService(fake, "noreply@example.com", "", "https://play.example.com")

	err := svc.NotifyAssignment(context.Background(), &models.Player{Email: "x@example.com"}, &models.Phrase{Content: "hi"})
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Errorf("NotifyAssignment() error = %v", err)
	}
}

func TestDisabledEmailService(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "eu-north-1", "", "", "")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("service without a sender should be disabled")
	}
	if err := svc.NotifyAssignment(context.Background(), &models.Player{ID: 1}, &models.Phrase{}); err != nil {
		t.Errorf("disabled NotifyAssignment() error = %v", err)
	}
}
