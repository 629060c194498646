package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/vales-contigo/internal/model"
)

func newTestRepo(t *testing.T) *FileRepository {
	t.Helper()

	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	return repo
}

func TestResolvePath(t *testing.T) {
	repo := &FileRepository{dir: "."}

	tests := []struct {
		name string
		pin  string
		want string
	}{
		{name: "plain", pin: "quesito", want: "estado_vales_quesito.json"},
		{name: "space", pin: "a b", want: "estado_vales_a_b.json"},
		{name: "slash", pin: "a/b", want: "estado_vales_a_b.json"},
		{name: "emoji", pin: "🧀❤️", want: "estado_vales_🧀❤️.json"},
		{name: "leading space kept", pin: " 1234", want: "estado_vales__1234.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repo.ResolvePath(tt.pin))
		})
	}
}

func TestResolvePath_Deterministic(t *testing.T) {
	a := &FileRepository{dir: "state"}
	b := &FileRepository{dir: "state"}

	assert.Equal(t, a.ResolvePath("quesito"), b.ResolvePath("quesito"))
	assert.Equal(t, filepath.Join("state", "estado_vales_quesito.json"), a.ResolvePath("quesito"))
}

func TestResolvePath_NoCollisionOutsideSeparators(t *testing.T) {
	repo := &FileRepository{dir: "."}

	pins := []string{"abc", "abd", "ab_", "ABC", "ab-", "ab.c", "ab\\c"}
	seen := make(map[string]string, len(pins))
	for _, pin := range pins {
		path := repo.ResolvePath(pin)
		if other, ok := seen[path]; ok {
			t.Fatalf("pins %q and %q collide on %s", pin, other, path)
		}
		seen[path] = pin
	}
}

func TestLoad_MissingFile(t *testing.T) {
	repo := newTestRepo(t)

	used, err := repo.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.Nil(t, used)
}

func TestLoad_InvalidJSON(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.WriteFile(repo.ResolvePath("broken"), []byte("{not json"), 0o644))

	_, err := repo.Load(context.Background(), "broken")

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, LoadErrorParse, loadErr.Kind)
	assert.Equal(t, repo.ResolvePath("broken"), loadErr.Location)
}

func TestLoad_Unreadable(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.Mkdir(repo.ResolvePath("dir"), 0o755))

	_, err := repo.Load(context.Background(), "dir")

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, LoadErrorIO, loadErr.Kind)
}

func TestLoad_MissingField(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.WriteFile(repo.ResolvePath("empty"), []byte(`{"otro": 1}`), 0o644))

	used, err := repo.Load(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, used.Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pin  string
		ids  []int
	}{
		{name: "empty", pin: "quesito", ids: nil},
		{name: "single", pin: "quesito", ids: []int{3}},
		{name: "all", pin: "a b/c", ids: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{name: "emoji pin", pin: "🧀", ids: []int{9, 0, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			want := model.NewUsedSet(tt.ids...)

			require.NoError(t, repo.Save(context.Background(), tt.pin, want))

			got, err := repo.Load(context.Background(), tt.pin)
			require.NoError(t, err)
			assert.Equal(t, want.IDs(), got.IDs())
		})
	}
}

func TestSave_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	want := model.NewUsedSet(1, 7)

	require.NoError(t, repo.Save(context.Background(), "quesito", want))
	require.NoError(t, repo.Save(context.Background(), "quesito", want))

	got, err := repo.Load(context.Background(), "quesito")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7}, got.IDs())
}

func TestSave_OverwritesWholeFile(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(context.Background(), "quesito", model.NewUsedSet(1, 2, 3)))
	require.NoError(t, repo.Save(context.Background(), "quesito", model.NewUsedSet(4)))

	got, err := repo.Load(context.Background(), "quesito")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, got.IDs())
}

func TestSave_Format(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(context.Background(), "quesito", model.NewUsedSet(5, 3)))

	data, err := os.ReadFile(repo.ResolvePath("quesito"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"vales_usados\": [\n    3,\n    5\n  ]\n}\n", string(data))
}

func TestEncodeState_EmptyIsArray(t *testing.T) {
	data, err := EncodeState(model.NewUsedSet())
	require.NoError(t, err)
	assert.JSONEq(t, `{"vales_usados": []}`, string(data))
}

func TestSave_CanceledContext(t *testing.T) {
	repo := newTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, "quesito", model.NewUsedSet(1))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(repo.ResolvePath("quesito"))
	assert.True(t, os.IsNotExist(err))
}
