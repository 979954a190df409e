package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/services"
)

func TestReceipt(t *testing.T) {
	repo := setupSeededRepo(t)
	voter := registerVoter(t, repo, 1, "Mumbai North")
	box := newBallotBox(repo, nil)
	svc := services.NewReceiptService(logger.Nop(), box)
	ctx := context.Background()

	if _, err := svc.GenerateReceiptQR(ctx, voter.ID); !errors.Is(err, services.ErrBallotNotFound) {
		t.Fatalf("expected ErrBallotNotFound before voting, got %v", err)
	}

	ballot, err := box.CastVote(ctx, voter.ID, services.VoteChoice{CandidateID: "1"})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	payload, err := svc.ReceiptPayload(ctx, voter.ID)
	if err != nil {
		t.Fatalf("ReceiptPayload failed: %v", err)
	}
	want := fmt.Sprintf("everyonevotes:ballot:%s:%d", ballot.ID, testNow.Unix())
	if payload != want {
		t.Errorf("expected payload %q, got %q", want, payload)
	}
	if strings.Contains(payload, "Rajesh") || strings.Contains(payload, "candidate") {
		t.Errorf("payload must not reveal the choice: %q", payload)
	}

	png, err := svc.GenerateReceiptQR(ctx, voter.ID)
	if err != nil {
		t.Fatalf("GenerateReceiptQR failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG data")
	}
}
