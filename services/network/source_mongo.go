package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	connectionRepo "circl/database/repository/connection"
	"circl/models"
)

// MongoSource serves networks from the connections collection.
type MongoSource struct {
	repo connectionRepo.ConnectionRepository
}

func NewMongoSource(repo connectionRepo.ConnectionRepository) *MongoSource {
	return &MongoSource{repo: repo}
}

func (s *MongoSource) Members(ctx context.Context, ownerID int64) ([]models.NetworkMember, error) {
	conns, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.NetworkMember, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Member())
	}
	return out, nil
}

// AddMember stores a connection. Members are keyed by user id, so email-only members
// are rejected.
func (s *MongoSource) AddMember(ctx context.Context, ownerID int64, member models.NetworkMember) error {
	err := s.repo.Add(ctx, models.Connection{
		OwnerID:   ownerID,
		MemberID:  member.UserID,
		Email:     member.Email,
		CreatedAt: time.Now(),
	})
	if errors.Is(err, connectionRepo.ErrInvalidConnection) {
		return fmt.Errorf("%w: userId is required", ErrInvalidMember)
	}
	return err
}

func (s *MongoSource) RemoveMember(ctx context.Context, ownerID, memberID int64) error {
	err := s.repo.Remove(ctx, ownerID, memberID)
	if errors.Is(err, connectionRepo.ErrConnectionNotFound) {
		return ErrMemberNotFound
	}
	return err
}
