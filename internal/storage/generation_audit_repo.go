package storage

import (
	"context"
	"fmt"
)

type GenerationCallRecord struct {
	CallID        string
	RequirementID int
	Provider      string
	Model         string
	Status        string
	ErrorType     string
	ElapsedMillis int64
}

type GenerationAuditRepo struct {
	db *DB
}

func NewGenerationAuditRepo(db *DB) *GenerationAuditRepo {
	return &GenerationAuditRepo{db: db}
}

func (r *GenerationAuditRepo) Insert(ctx context.Context, rec GenerationCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO generation_calls (call_id, requirement_id, provider, model, status, error_type, elapsed_ms)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, $4, $5, NULLIF($6,''), $7)`,
		rec.CallID, rec.RequirementID, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.ElapsedMillis)
	if err != nil {
		return fmt.Errorf("insert generation call: %w", err)
	}
	return nil
}
