package locks

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/genie-oss/agent/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FileLockTestSuite struct {
	suite.Suite
	factory LockFactory
	dir     string
}

func (s *FileLockTestSuite) SetupTest() {
	s.factory = NewFileLockFactory()
	s.dir = s.T().TempDir()
}

func (s *FileLockTestSuite) TestLockAndRelease() {
	path := filepath.Join(s.dir, "resource.lock")

	lock, err := s.factory.GetLock(path)
	require.NoError(s.T(), err)

	require.NoError(s.T(), lock.Lock())

	// The lock file is created on acquisition.
	_, err = os.Stat(path)
	assert.NoError(s.T(), err)

	assert.NoError(s.T(), lock.Close())
}

func (s *FileLockTestSuite) TestCloseWithoutLock() {
	lock, err := s.factory.GetLock(filepath.Join(s.dir, "resource.lock"))
	require.NoError(s.T(), err)
	assert.NoError(s.T(), lock.Close())
	assert.NoError(s.T(), lock.Close())
}

func (s *FileLockTestSuite) TestMutualExclusion() {
	path := filepath.Join(s.dir, "resource.lock")

	var inCriticalSection bool
	var overlaps int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			lock, err := s.factory.GetLock(path)
			require.NoError(s.T(), err)
			defer lock.Close()
			require.NoError(s.T(), lock.Lock())

			mu.Lock()
			if inCriticalSection {
				overlaps++
			}
			inCriticalSection = true
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCriticalSection = false
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(s.T(), 0, overlaps)
}

func (s *FileLockTestSuite) TestEquivalentPathsShareLock() {
	direct := filepath.Join(s.dir, "resource.lock")
	indirect := filepath.Join(s.dir, "sub", "..", "resource.lock")
	require.NoError(s.T(), os.MkdirAll(filepath.Join(s.dir, "sub"), 0755))

	first, err := s.factory.GetLock(direct)
	require.NoError(s.T(), err)
	require.NoError(s.T(), first.Lock())

	second, err := s.factory.GetLock(indirect)
	require.NoError(s.T(), err)

	acquired := make(chan struct{})
	go func() {
		require.NoError(s.T(), second.Lock())
		close(acquired)
	}()

	// The second acquisition must block while the first is held.
	select {
	case <-acquired:
		s.T().Fatal("lock acquired while held through an equivalent path")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(s.T(), first.Close())

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		s.T().Fatal("lock never acquired after release")
	}

	require.NoError(s.T(), second.Close())
}

func (s *FileLockTestSuite) TestUnopenablePath() {
	// Lock file inside a directory that does not exist.
	lock, err := s.factory.GetLock(filepath.Join(s.dir, "missing", "resource.lock"))
	require.NoError(s.T(), err)
	defer lock.Close()

	err = lock.Lock()
	require.Error(s.T(), err)
	assert.True(s.T(), errors.Is(err, utils.ErrLockUnavailable))
}

func (s *FileLockTestSuite) TestIndependentPathsDoNotContend() {
	first, err := s.factory.GetLock(filepath.Join(s.dir, "a.lock"))
	require.NoError(s.T(), err)
	require.NoError(s.T(), first.Lock())
	defer first.Close()

	second, err := s.factory.GetLock(filepath.Join(s.dir, "b.lock"))
	require.NoError(s.T(), err)
	defer second.Close()

	acquired := make(chan struct{})
	go func() {
		require.NoError(s.T(), second.Lock())
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		s.T().Fatal("unrelated lock blocked")
	}
}

func TestFileLockTestSuite(t *testing.T) {
	suite.Run(t, new(FileLockTestSuite))
}
