package services

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/logger"
)

// ReceiptSize is the edge length in pixels of a receipt QR image
const ReceiptSize = 256

// ReceiptService renders a voter's ballot receipt as a QR code. The payload
// identifies the ballot and when it was cast; it never names the choice.
type ReceiptService struct {
	log     logger.Logger
	ballots *BallotBox
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(log logger.Logger, ballots *BallotBox) *ReceiptService {
	return &ReceiptService{log: log, ballots: ballots}
}

// ReceiptPayload returns the text encoded in the voter's receipt
func (s *ReceiptService) ReceiptPayload(ctx context.Context, voterID string) (string, error) {
	ballot, err := s.ballots.BallotFor(ctx, voterID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("everyonevotes:ballot:%s:%d", ballot.ID, ballot.CastAt.Unix()), nil
}

// GenerateReceiptQR generates a PNG QR code for the voter's ballot
func (s *ReceiptService) GenerateReceiptQR(ctx context.Context, voterID string) ([]byte, error) {
	payload, err := s.ReceiptPayload(ctx, voterID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, ReceiptSize)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return png, nil
}
