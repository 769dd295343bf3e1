package store

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/abhisek/levelup/internal/mastery"
)

// openTestStore opens an in-memory database private to the test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrateCreatesProgressTable(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.DB().Query("SELECT name FROM pragma_table_info('user_progress')")
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.ElementsMatch(t, progressColumns, cols)
}

func TestProgressGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ProgressRepo().Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressFirstUpsertInserts(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	p, err := repo.Upsert(ctx, ProgressUpdate{
		UserID:     7,
		Level:      mastery.LevelB2,
		Answers:    map[int]bool{0: true, 1: true, 2: false, 3: true, 4: false},
		WeakTopics: []string{"Grammar", "Idioms"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, mastery.LevelB2, p.Level)
	assert.Equal(t, 1, p.CompletedTests)
	assert.Equal(t, []string{"Grammar", "Idioms"}, p.WeakTopics)
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: false, 3: true, 4: false}, p.CorrectAnswers)
	assert.False(t, p.UpdatedAt.IsZero())

	correct, total := p.LastScore()
	assert.Equal(t, 3, correct)
	assert.Equal(t, 5, total)

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestProgressSecondUpsertIncrementsAndOverwrites(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	_, err := repo.Upsert(ctx, ProgressUpdate{
		UserID:     1,
		Level:      mastery.LevelA2,
		Answers:    map[int]bool{0: false, 1: false},
		WeakTopics: []string{"Grammar", "Vocabulary"},
	})
	require.NoError(t, err)

	p, err := repo.Upsert(ctx, ProgressUpdate{
		UserID:     1,
		Level:      mastery.LevelC1,
		Answers:    map[int]bool{0: true, 1: true},
		WeakTopics: nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.CompletedTests)
	assert.Equal(t, mastery.LevelC1, p.Level)
	assert.Empty(t, p.WeakTopics)
	assert.NotNil(t, p.WeakTopics)
	assert.Equal(t, map[int]bool{0: true, 1: true}, p.CorrectAnswers)
}

func TestProgressUsersAreIsolated(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	for _, id := range []int64{1, 2, 1} {
		_, err := repo.Upsert(ctx, ProgressUpdate{UserID: id, Level: mastery.LevelB1})
		require.NoError(t, err)
	}

	p1, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	p2, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p1.CompletedTests)
	assert.Equal(t, 1, p2.CompletedTests)
}

func TestProgressMissingCounterTreatedAsZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.DB().Exec(
		`INSERT INTO user_progress (user_id, level, correct_answers, completed_tests, weak_topics, updated_at)
		 VALUES (5, 'B1', '{}', NULL, '[]', 0)`)
	require.NoError(t, err)

	repo := s.ProgressRepo()
	p, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, p.CompletedTests)
	assert.True(t, p.UpdatedAt.IsZero())

	p, err = repo.Upsert(ctx, ProgressUpdate{UserID: 5, Level: mastery.LevelB2})
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedTests)
}

func TestProgressUpdatedAtUsesClock(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &progressRepo{db: s.DB(), now: func() time.Time { return at }}

	p, err := repo.Upsert(context.Background(), ProgressUpdate{UserID: 3, Level: mastery.LevelA2})
	require.NoError(t, err)
	assert.Equal(t, at, p.UpdatedAt)
}

func TestProgressConcurrentUpsertsCountEveryTest(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "levelup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	repo := s.ProgressRepo()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(ctx, ProgressUpdate{UserID: 9, Level: mastery.LevelB1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, n, p.CompletedTests)
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "sub", "x.db")
		t.Setenv("LEVELUP_DB", p)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.DirExists(t, filepath.Dir(p))
	})

	t.Run("xdg data home", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("LEVELUP_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "levelup", "levelup.db"), got)
	})
}

func TestAnswerEncodingRoundTrip(t *testing.T) {
	in := map[int]bool{0: true, 12: false}
	enc := encodeAnswers(in)
	assert.Equal(t, map[string]bool{"0": true, "12": false}, enc)

	enc["bogus"] = true
	assert.Equal(t, in, decodeAnswers(enc))
}

func TestMongoProgressUpsertDocument(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	filter, update := progressUpsert(ProgressUpdate{
		UserID:     11,
		Level:      mastery.LevelB1,
		Answers:    map[int]bool{1: true},
		WeakTopics: []string{"Grammar"},
	}, at)

	assert.Equal(t, int64(11), filter["user_id"])

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "B1", set["level"])
	assert.Equal(t, map[string]bool{"1": true}, set["correct_answers"])
	assert.Equal(t, []string{"Grammar"}, set["weak_topics"])
	assert.Equal(t, at, set["updated_at"])

	inc, ok := update["$inc"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, 1, inc["completed_tests"])
	assert.NotContains(t, set, "completed_tests")
}

func TestProgressDocumentToProgress(t *testing.T) {
	p := progressDocument{
		UserID:         4,
		Level:          "C1",
		CorrectAnswers: map[string]bool{"0": true},
	}.toProgress()
	assert.Equal(t, mastery.LevelC1, p.Level)
	assert.Equal(t, map[int]bool{0: true}, p.CorrectAnswers)
	assert.NotNil(t, p.WeakTopics)
	assert.Equal(t, 0, p.CompletedTests)
}
