package digest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotionArchiver(t *testing.T) {
	t.Run("RequiresToken", func(t *testing.T) {
		archiver, err := NewNotionArchiver("", "db-123")

		assert.Nil(t, archiver)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOTION_TOKEN")
	})

	t.Run("DatabaseIDOptional", func(t *testing.T) {
		archiver, err := NewNotionArchiver("secret-token", "")

		require.NoError(t, err)
		assert.NotNil(t, archiver)
	})
}

func TestNotionArchiver_ArchiveSummariesWithoutDatabase(t *testing.T) {
	archiver, err := NewNotionArchiver("secret-token", "")
	require.NoError(t, err)

	err = archiver.ArchiveSummaries(context.Background(), []ArticleSummary{
		{Title: "t", Published: "p", Link: "l", Summary: "s"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ID not set")
}

func TestNotionArchiver_CreateDatabaseRequiresPageID(t *testing.T) {
	archiver, err := NewNotionArchiver("secret-token", "")
	require.NoError(t, err)

	id, err := archiver.CreateDatabase(context.Background(), "")

	assert.Empty(t, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent page ID")
}
