package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/catoptric/catoptric/client-go/internal/db"
	"github.com/catoptric/catoptric/client-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("share not found")
	ErrForbidden = errors.New("forbidden")
)

// Service stores and retrieves shared session states. Anyone holding a
// share id may load it; listing and deletion require ownership.
type Service struct {
	queries *db.Queries
}

func NewService(queries *db.Queries) *Service {
	return &Service{queries: queries}
}

// Share is one saved session state addressable by link.
type Share struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	State     State  `json:"state"`
	CreatedAt string `json:"createdAt"`
}

// Create saves a session state. ownerID may be empty for anonymous shares.
func (s *Service) Create(ctx context.Context, name, ownerID string, state State) (*Share, error) {
	encoded, err := Encode(state)
	if err != nil {
		return nil, err
	}

	var owner *string
	if ownerID != "" {
		owner = &ownerID
	}

	dbShare, err := s.queries.CreateShare(ctx, db.CreateShareParams{
		ID:      typeid.NewShareID(),
		OwnerID: owner,
		Name:    name,
		State:   encoded,
	})
	if err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}

	return dbShareToShare(dbShare), nil
}

// Get loads a share by id. Shares are public by link.
func (s *Service) Get(ctx context.Context, shareID string) (*Share, error) {
	dbShare, err := s.queries.GetShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get share: %w", err)
	}

	return dbShareToShare(dbShare), nil
}

// List returns the caller's saved shares.
func (s *Service) List(ctx context.Context, userID string) ([]Share, error) {
	dbShares, err := s.queries.ListSharesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	shares := make([]Share, len(dbShares))
	for i, sh := range dbShares {
		shares[i] = *dbShareToShare(sh)
	}
	return shares, nil
}

// Delete removes a share; only its owner may.
func (s *Service) Delete(ctx context.Context, shareID, userID string) error {
	dbShare, err := s.queries.GetShare(ctx, shareID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get share: %w", err)
	}

	if dbShare.OwnerID == nil || *dbShare.OwnerID != userID {
		return ErrForbidden
	}

	return s.queries.DeleteShare(ctx, shareID)
}

func dbShareToShare(sh db.Share) *Share {
	return &Share{
		ID:        sh.ID,
		Name:      sh.Name,
		State:     Decode(sh.State),
		CreatedAt: sh.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
