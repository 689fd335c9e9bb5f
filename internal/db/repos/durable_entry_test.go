package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DurableEntryRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestDurableEntryRepository(t *testing.T) {
	suite.Run(t, new(DurableEntryRepositoryTestSuite))
}

func (s *DurableEntryRepositoryTestSuite) TestGetMissingKey() {
	_, err := s.entryRepo.Get(s.ctx, "reloader:session_id")
	s.ErrorIs(err, ErrEntryNotFound)
}

func (s *DurableEntryRepositoryTestSuite) TestPutThenGet() {
	s.Require().NoError(s.entryRepo.Put(s.ctx, "reloader:session_id", "session-1"))

	entry, err := s.entryRepo.Get(s.ctx, "reloader:session_id")
	s.Require().NoError(err)
	s.Equal("session-1", entry.Value)
	s.False(entry.UpdatedAt.IsZero())
}

func (s *DurableEntryRepositoryTestSuite) TestPutOverwrites() {
	s.Require().NoError(s.entryRepo.Put(s.ctx, "reloader:active_jobs", `["a"]`))
	s.Require().NoError(s.entryRepo.Put(s.ctx, "reloader:active_jobs", `["a","b"]`))

	entry, err := s.entryRepo.Get(s.ctx, "reloader:active_jobs")
	s.Require().NoError(err)
	s.Equal(`["a","b"]`, entry.Value)

	var count int64
	s.Require().NoError(s.db.Table("durable_entries").Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *DurableEntryRepositoryTestSuite) TestPutEmptyKey() {
	err := s.entryRepo.Put(s.ctx, "", "value")
	s.Error(err)
}
