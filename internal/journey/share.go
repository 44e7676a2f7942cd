package journey

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hospital-journey-server/internal/apperrors"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/observability"
)

const (
	shareCodeLength = 8
	// No 0/O, 1/I/L or U, so codes survive being read aloud.
	shareCodeAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"
)

// ShareCode is returned once, at creation. Only its hash is stored.
type ShareCode struct {
	Code      string    `json:"code"`
	JourneyID string    `json:"journeyId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateShare issues a code granting read access to the journey until it expires.
func (s *Service) CreateShare(ctx context.Context, journeyID, createdBy string) (*ShareCode, error) {
	var journey models.Journey
	if err := s.db.WithContext(ctx).Select("id").First(&journey, "id = ?", journeyID).Error; err != nil {
		return nil, apperrors.FromStore(err, "journey not found")
	}

	code, err := generateShareCode()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to generate share code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to hash share code", err)
	}

	share := models.JourneyShare{
		JourneyID: journeyID,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.shareTTL).UTC(),
		CreatedBy: createdBy,
	}
	if err := s.db.WithContext(ctx).Create(&share).Error; err != nil {
		return nil, apperrors.FromStore(err, "")
	}

	observability.LoggerFromContext(ctx).Info().
		Str("journey_id", journeyID).
		Str("created_by", createdBy).
		Time("expires_at", share.ExpiresAt).
		Msg("share code issued")

	return &ShareCode{Code: code, JourneyID: journeyID, ExpiresAt: share.ExpiresAt}, nil
}

// VerifyShare checks code against the journey's unexpired shares.
func (s *Service) VerifyShare(ctx context.Context, journeyID, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != shareCodeLength {
		return apperrors.NewForbiddenError("share code is invalid or expired")
	}

	var shares []models.JourneyShare
	err := s.db.WithContext(ctx).
		Where("journey_id = ? AND expires_at > ?", journeyID, s.now().UTC()).
		Find(&shares).Error
	if err != nil {
		return apperrors.FromStore(err, "")
	}
	for _, share := range shares {
		if bcrypt.CompareHashAndPassword([]byte(share.CodeHash), []byte(code)) == nil {
			return nil
		}
	}
	return apperrors.NewForbiddenError("share code is invalid or expired")
}

func generateShareCode() (string, error) {
	limit := big.NewInt(int64(len(shareCodeAlphabet)))
	var b strings.Builder
	for i := 0; i < shareCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(shareCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
