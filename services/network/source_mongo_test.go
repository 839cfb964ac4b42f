package network

import (
	"context"
	"testing"

	connectionRepo "circl/database/repository/connection"
	"circl/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnectionRepo struct {
	conns []models.Connection
}

func (f *fakeConnectionRepo) ListByOwner(_ context.Context, owner int64) ([]models.Connection, error) {
	var out []models.Connection
	for _, c := range f.conns {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

// Add upserts on (owner, member) like the Mongo repository.
func (f *fakeConnectionRepo) Add(_ context.Context, conn models.Connection) error {
	if conn.MemberID <= 0 {
		return connectionRepo.ErrInvalidConnection
	}
	for i, c := range f.conns {
		if c.OwnerID == conn.OwnerID && c.MemberID == conn.MemberID {
			f.conns[i].Email = conn.Email
			return nil
		}
	}
	f.conns = append(f.conns, conn)
	return nil
}

func (f *fakeConnectionRepo) Remove(_ context.Context, owner, member int64) error {
	for i, c := range f.conns {
		if c.OwnerID == owner && c.MemberID == member {
			f.conns = append(f.conns[:i], f.conns[i+1:]...)
			return nil
		}
	}
	return connectionRepo.ErrConnectionNotFound
}

func TestMongoSource_RoundTrip(t *testing.T) {
	repo := &fakeConnectionRepo{}
	src := NewMongoSource(repo)
	ctx := context.Background()

	require.NoError(t, src.AddMember(ctx, 1, models.NetworkMember{UserID: 5, Email: "five@circl.app"}))
	require.NoError(t, src.AddMember(ctx, 2, models.NetworkMember{UserID: 6, Email: "six@circl.app"}))

	members, err := src.Members(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.NetworkMember{{UserID: 5, Email: "five@circl.app"}}, members)
	assert.False(t, repo.conns[0].CreatedAt.IsZero())

	require.NoError(t, src.RemoveMember(ctx, 1, 5))
	members, err = src.Members(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, members)

	assert.ErrorIs(t, src.RemoveMember(ctx, 1, 5), ErrMemberNotFound)
}

func TestMongoSource_AddRequiresMemberID(t *testing.T) {
	repo := &fakeConnectionRepo{}
	src := NewMongoSource(repo)
	ctx := context.Background()

	assert.ErrorIs(t, src.AddMember(ctx, 1, models.NetworkMember{Email: "a@circl.app"}), ErrInvalidMember)
	assert.ErrorIs(t, src.AddMember(ctx, 1, models.NetworkMember{Email: "b@circl.app"}), ErrInvalidMember)
	assert.Empty(t, repo.conns)
}

func TestMongoSource_AddSameMemberUpdatesEmail(t *testing.T) {
	repo := &fakeConnectionRepo{}
	src := NewMongoSource(repo)
	ctx := context.Background()

	require.NoError(t, src.AddMember(ctx, 1, models.NetworkMember{UserID: 5, Email: "old@circl.app"}))
	require.NoError(t, src.AddMember(ctx, 1, models.NetworkMember{UserID: 5, Email: "new@circl.app"}))
	require.NoError(t, src.AddMember(ctx, 1, models.NetworkMember{UserID: 6, Email: "six@circl.app"}))

	members, err := src.Members(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.NetworkMember{
		{UserID: 5, Email: "new@circl.app"},
		{UserID: 6, Email: "six@circl.app"},
	}, members)
}

func TestCache_RejectedAddIsUndone(t *testing.T) {
	c := startCache(t, NewMongoSource(&fakeConnectionRepo{}))
	ctx := context.Background()

	err := c.Add(ctx, 1, models.NetworkMember{Email: "ghost@circl.app"})
	assert.ErrorIs(t, err, ErrInvalidMember)

	found, _, err := c.ContainsEmail(ctx, 1, "ghost@circl.app")
	require.NoError(t, err)
	assert.False(t, found)
}
