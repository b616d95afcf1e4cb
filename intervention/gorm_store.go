package intervention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BaSui01/browserpilot/types"
)

// requestRecord is the database row backing a Request. Context is stored
// as a JSON blob so the schema stays stable across request shapes.
type requestRecord struct {
	ID             string `gorm:"primaryKey;size:64"`
	Type           string `gorm:"size:32;index"`
	Status         string `gorm:"size:16;index"`
	Message        string
	Instructions   string
	URL            string
	ContextJSON    string `gorm:"type:text"`
	Screenshot     string `gorm:"type:text"`
	CreatedAt      time.Time
	ResolvedAt     *time.Time
	TimeoutSeconds int64
	CompletionNote string
	CancelReason   string
}

func (requestRecord) TableName() string { return "intervention_requests" }

func toRecord(req *Request) (*requestRecord, error) {
	var ctxJSON string
	if len(req.Context) > 0 {
		b, err := json.Marshal(req.Context)
		if err != nil {
			return nil, fmt.Errorf("marshal request context: %w", err)
		}
		ctxJSON = string(b)
	}
	return &requestRecord{
		ID:             req.ID,
		Type:           string(req.Type),
		Status:         string(req.Status),
		Message:        req.Message,
		Instructions:   req.Instructions,
		URL:            req.URL,
		ContextJSON:    ctxJSON,
		Screenshot:     req.Screenshot,
		CreatedAt:      req.CreatedAt,
		ResolvedAt:     req.ResolvedAt,
		TimeoutSeconds: int64(req.Timeout / time.Second),
		CompletionNote: req.CompletionNote,
		CancelReason:   req.CancelReason,
	}, nil
}

func (r *requestRecord) toRequest() (*Request, error) {
	req := &Request{
		ID:             r.ID,
		Type:           Type(r.Type),
		Status:         Status(r.Status),
		Message:        r.Message,
		Instructions:   r.Instructions,
		URL:            r.URL,
		Screenshot:     r.Screenshot,
		CreatedAt:      r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
		Timeout:        time.Duration(r.TimeoutSeconds) * time.Second,
		CompletionNote: r.CompletionNote,
		CancelReason:   r.CancelReason,
	}
	if r.ContextJSON != "" {
		if err := json.Unmarshal([]byte(r.ContextJSON), &req.Context); err != nil {
			return nil, fmt.Errorf("unmarshal request context: %w", err)
		}
	}
	return req, nil
}

// GormStore persists intervention requests through GORM, so the same
// code serves SQLite and PostgreSQL deployments.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns a store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&requestRecord{}); err != nil {
		return nil, fmt.Errorf("migrate intervention schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Save(ctx context.Context, req *Request) error {
	rec, err := toRecord(req)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) Load(ctx context.Context, id string) (*Request, error) {
	var rec requestRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrInterventionNotFound,
			fmt.Sprintf("intervention request not found: %s", id))
	}
	if err != nil {
		return nil, err
	}
	return rec.toRequest()
}

func (s *GormStore) List(ctx context.Context, status Status) ([]*Request, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var recs []requestRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*Request, 0, len(recs))
	for i := range recs {
		req, err := recs[i].toRequest()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *GormStore) Update(ctx context.Context, req *Request) error {
	rec, err := toRecord(req)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&requestRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"status":          rec.Status,
		"resolved_at":     rec.ResolvedAt,
		"completion_note": rec.CompletionNote,
		"cancel_reason":   rec.CancelReason,
		"screenshot":      rec.Screenshot,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrInterventionNotFound,
			fmt.Sprintf("intervention request not found: %s", req.ID))
	}
	return nil
}

// Ping verifies the database connection, for readiness probes.
func (s *GormStore) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}
