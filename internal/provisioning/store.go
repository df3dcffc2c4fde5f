// internal/provisioning/store.go

// Package provisioning records finalized onboardings in Postgres. One row
// per user; a re-run of finalization for the same user updates the row in
// place rather than erroring.
package provisioning

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/wizard"
)

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "provisioning-store"}),
	}
}

// Provision writes the onboarding record that downstream agent deployment
// reads. The payload is stored as JSONB; plan and business name are lifted
// into columns for reporting queries.
func (s *Store) Provision(ctx context.Context, userID string, payload *wizard.Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewDatabaseInsertFailed(fmt.Errorf("marshal payload: %w", err))
	}

	recordID := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO onboardings (
			id, user_id, business_name, selected_plan, payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			selected_plan = EXCLUDED.selected_plan,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		recordID,
		userID,
		payload.Step1.BusinessName,
		string(payload.Step5.SelectedPlan),
		payloadJSON,
		now,
	)
	if err != nil {
		s.logger.Error("onboarding record write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return apperrors.NewDatabaseInsertFailed(err)
	}

	s.logger.Info("onboarding record written", map[string]interface{}{
		"userId": userID,
		"plan":   string(payload.Step5.SelectedPlan),
	})
	return nil
}

// GetByUserID loads one onboarding record's payload.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*wizard.Payload, error) {
	var payloadJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM onboardings WHERE user_id = $1`, userID).Scan(&payloadJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseConnectionFailed(err)
	}

	var payload wizard.Payload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, fmt.Errorf("decode stored payload: %w", err)
	}
	return &payload, nil
}
