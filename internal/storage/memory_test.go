package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/types"
)

func sampleResume(id string, skills ...string) types.ResumeRecord {
	return types.ResumeRecord{
		ID:            id,
		RawText:       "raw " + id,
		CleanedText:   "cleaned " + id,
		CandidateName: "Candidate " + id,
		Skills:        skills,
		Education:     types.EducationNotSpecified,
		FileName:      id + ".txt",
		FileFormat:    "txt",
		CreatedAt:     time.Now().UTC(),
	}
}

// runRecordStoreSuite 对任意 RecordStore 实现执行同一组行为检查
func runRecordStoreSuite(t *testing.T, store storage.RecordStore) {
	ctx := context.Background()

	t.Run("插入顺序", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, store.AddResume(ctx, sampleResume(fmt.Sprintf("r-%d", i), "Go")))
		}
		list, err := store.ListResumes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "r-0", list[0].ID)
		assert.Equal(t, "r-1", list[1].ID)
		assert.Equal(t, "r-2", list[2].ID)
	})

	t.Run("获取与删除", func(t *testing.T) {
		rec, err := store.GetResume(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, "Candidate r-1", rec.CandidateName)
		assert.Equal(t, []string{"Go"}, rec.Skills)

		require.NoError(t, store.DeleteResume(ctx, "r-1"))
		_, err = store.GetResume(ctx, "r-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteResume(ctx, "r-1"), storage.ErrNotFound)

		list, err := store.ListResumes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "r-0", list[0].ID)
		assert.Equal(t, "r-2", list[1].ID)
	})

	t.Run("JD", func(t *testing.T) {
		job := types.JobDescriptionRecord{
			ID:          "j-1",
			Title:       "Backend Engineer",
			Description: "Build services in Go",
			Skills:      []string{"Go", "Redis"},
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, store.AddJob(ctx, job))

		got, err := store.GetJob(ctx, "j-1")
		require.NoError(t, err)
		assert.Equal(t, job.Title, got.Title)
		assert.Equal(t, job.Skills, got.Skills)

		jobs, err := store.ListJobs(ctx)
		require.NoError(t, err)
		assert.Len(t, jobs, 1)

		require.NoError(t, store.DeleteJob(ctx, "j-1"))
		_, err = store.GetJob(ctx, "j-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteJob(ctx, "missing"), storage.ErrNotFound)
	})

	t.Cleanup(func() {
		_ = store.DeleteResume(ctx, "r-0")
		_ = store.DeleteResume(ctx, "r-2")
	})
}

func TestMemoryStore_Behaviour(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	runRecordStoreSuite(t, store)
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.AddResume(ctx, sampleResume("dup")))
	assert.Error(t, store.AddResume(ctx, sampleResume("dup")))
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	skills := []string{"Go", "Docker"}
	require.NoError(t, store.AddResume(ctx, sampleResume("a", skills...)))
	skills[0] = "mutated"

	snapshot, err := store.ListResumes(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Go", snapshot[0].Skills[0])

	// 快照之后的写入不影响已返回的快照
	require.NoError(t, store.AddResume(ctx, sampleResume("b")))
	assert.Len(t, snapshot, 1)

	snapshot[0].Skills[1] = "changed"
	fresh, err := store.GetResume(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Docker"}, fresh.Skills)
}

func TestMemoryStore_EmptyListIsNotNil(t *testing.T) {
	store := storage.NewMemoryStore()
	list, err := store.ListResumes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMemoryStore_ConcurrentAdds(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.AddResume(ctx, sampleResume(fmt.Sprintf("c-%d", i))))
		}(i)
	}
	wg.Wait()

	list, err := store.ListResumes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestNoopArchiveAndPublisher(t *testing.T) {
	ctx := context.Background()

	key, err := storage.NoopArchive{}.PutOriginal(ctx, "id", "pdf", []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.NoError(t, storage.NoopArchive{}.Delete(ctx, ""))

	assert.NoError(t, storage.NoopPublisher{}.Publish(ctx, "resume.uploaded", storage.NewEvent("resume.uploaded")))
	assert.NoError(t, storage.NoopPublisher{}.Close())
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "resume/abc/original.pdf", storage.ArchiveKey("abc", "pdf"))
}

func TestNewEvent(t *testing.T) {
	a := storage.NewEvent("job.uploaded")
	b := storage.NewEvent("job.uploaded")
	assert.Equal(t, "job.uploaded", a.Type)
	assert.NotEmpty(t, a.EventID)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.False(t, a.OccurredAt.IsZero())
}
