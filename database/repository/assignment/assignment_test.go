package assignmentRepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAssignmentRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAssignmentRepo()

	require.NoError(t, repo.ReplaceSubjects(ctx, "t2", []string{"math", "physics"}))
	require.NoError(t, repo.ReplaceSubjects(ctx, "t1", []string{"math"}))

	teachers, err := repo.TeachersForSubject(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, teachers)

	subjects, err := repo.SubjectsTaughtBy(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"math", "physics"}, subjects)

	require.NoError(t, repo.ReplaceSubjects(ctx, "t2", []string{"chemistry"}))
	teachers, err = repo.TeachersForSubject(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, teachers)

	require.NoError(t, repo.ReplaceSubjects(ctx, "t1", nil))
	teachers, err = repo.TeachersForSubject(ctx, "math")
	require.NoError(t, err)
	assert.Empty(t, teachers)
}
