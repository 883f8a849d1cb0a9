package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFilePersister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		path         string
		existingData string
		data         string
	}{
		{
			name: "just_file",
			path: "shot.png",
			data: "some data",
		},
		{
			name: "with_dir",
			path: "screenshots/nested/shot.png",
			data: "some data",
		},
		{
			name:         "replaces",
			path:         "shot.png",
			data:         "new",
			existingData: "existing data that is longer",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			p := filepath.Join(dir, tt.path)
			if tt.existingData != "" {
				require.NoError(t, os.WriteFile(p, []byte(tt.existingData), 0o600))
			}

			l := &LocalFilePersister{}
			require.NoError(t, l.Persist(context.Background(), p, strings.NewReader(tt.data)))

			bb, err := os.ReadFile(filepath.Clean(p))
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(bb))

			entries, err := os.ReadDir(filepath.Dir(p))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temporary files may be left behind")
		})
	}
}

func TestLocalFilePersisterFailures(t *testing.T) {
	t.Parallel()

	t.Run("canceled_context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := filepath.Join(t.TempDir(), "shot.png")
		err := (&LocalFilePersister{}).Persist(ctx, p, strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("failing_reader", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		p := filepath.Join(dir, "shot.png")
		boom := errors.New("boom")
		err := (&LocalFilePersister{}).Persist(context.Background(), p, iotest.ErrReader(boom))
		assert.ErrorIs(t, err, boom)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
