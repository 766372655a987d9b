//go:build integration

package resolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/roach88/nomindex/internal/namehash"
	"github.com/roach88/nomindex/internal/resolve"
	"github.com/roach88/nomindex/internal/testutil/containers"
)

type RedisResolverSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	resolver *resolve.Redis
}

func TestRedisResolverSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisResolverSuite))
}

func (s *RedisResolverSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.resolver = resolve.NewRedis(s.redis.Client, resolve.WithRedisKey("test:labels"))
}

func (s *RedisResolverSuite) TearDownSuite() {
	s.redis.Terminate(context.Background())
}

func (s *RedisResolverSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisResolverSuite) TestPutThenResolve() {
	ctx := context.Background()

	n, err := s.resolver.Put(ctx, "alice", "bob")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	name, ok, err := s.resolver.NameByHash(ctx, namehash.LabelHash("alice"))
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("alice", name)
}

func (s *RedisResolverSuite) TestMissingIsNotAnError() {
	_, ok, err := s.resolver.NameByHash(context.Background(), namehash.LabelHash("carol"))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisResolverSuite) TestPutIsIdempotent() {
	ctx := context.Background()

	_, err := s.resolver.Put(ctx, "alice")
	s.Require().NoError(err)
	n, err := s.resolver.Put(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(0), n)
}

func (s *RedisResolverSuite) TestHealth() {
	s.NoError(s.resolver.Health(context.Background()))
}
