package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakegate/fakegate/pkg/logging"
	"github.com/fakegate/fakegate/pkg/rule"
)

func newRule(baseURL, path, query, body string) *rule.Rule {
	return &rule.Rule{
		BaseURL: baseURL,
		Path:    path,
		Query:   query,
		Body:    body,
		Responses: []rule.ResponseVariant{
			{Name: "default", Body: `{"ok":true}`, Active: true},
			{Name: "error", Body: `{"ok":false}`},
		},
	}
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	s := NewMemoryStore()
	r := newRule("https://api.example.com", "/users", "", "")
	require.NoError(t, s.Add(r))

	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.True(t, r.UpdatedAt.IsZero())
	assert.Equal(t, 1, s.Count())
}

func TestAddRejectsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Add(newRule("https://api.example.com", "/users", "", "")))

	// Identical wildcard rule conflicts.
	err := s.Add(newRule("https://api.example.com", "/users", "", ""))
	assert.ErrorIs(t, err, ErrDuplicateRule)

	// Same path with a query constraint is distinct from the wildcard rule.
	require.NoError(t, s.Add(newRule("https://api.example.com", "/users", "a=1", "")))

	// Equivalent query (reordered) conflicts with the previous one.
	require.NoError(t, s.Add(newRule("https://api.example.com", "/users", "a=1&b=2", "")))
	err = s.Add(newRule("https://api.example.com", "/users", "b=2&a=1", ""))
	assert.ErrorIs(t, err, ErrDuplicateRule)

	// Equivalent body conflicts.
	require.NoError(t, s.Add(newRule("https://api.example.com", "/posts", "", `{"a":1,"b":2}`)))
	err = s.Add(newRule("https://api.example.com", "/posts", "x=1", `{"b":2,"a":1}`))
	assert.ErrorIs(t, err, ErrDuplicateRule)

	// Non-equivalent body succeeds.
	require.NoError(t, s.Add(newRule("https://api.example.com", "/posts", "", `{"a":2}`)))
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	r := newRule("https://api.example.com", "/users", "", "")
	require.NoError(t, s.Add(r))

	got := s.Get(r.ID)
	require.NotNil(t, got)
	got.Path = "/mutated"
	got.Responses[0].Body = "mutated"

	again := s.Get(r.ID)
	assert.Equal(t, "/users", again.Path)
	assert.Equal(t, `{"ok":true}`, again.Responses[0].Body)

	assert.Nil(t, s.Get("missing"))
}

func TestUpdate(t *testing.T) {
	s := NewMemoryStore()
	first := newRule("https://api.example.com", "/users", "", "")
	second := newRule("https://api.example.com", "/posts", "", "")
	require.NoError(t, s.Add(first))
	require.NoError(t, s.Add(second))

	first.Path = "/members"
	require.NoError(t, s.Update(first))

	got := s.Get(first.ID)
	assert.Equal(t, "/members", got.Path)
	assert.False(t, got.UpdatedAt.IsZero())

	// Insertion order is preserved across updates.
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	// Updating into a conflict with another rule is rejected.
	second.Path = "/members"
	assert.ErrorIs(t, s.Update(second), ErrDuplicateRule)

	// Unknown ID.
	ghost := newRule("https://api.example.com", "/ghost", "", "")
	ghost.ID = "missing"
	assert.ErrorIs(t, s.Update(ghost), ErrNotFound)
}

func TestUpdateDoesNotConflictWithItself(t *testing.T) {
	s := NewMemoryStore()
	r := newRule("https://api.example.com", "/users", "", "")
	require.NoError(t, s.Add(r))

	r.Responses[0].Body = `{"changed":true}`
	assert.NoError(t, s.Update(r))
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore()
	first := newRule("https://api.example.com", "/a", "", "")
	second := newRule("https://api.example.com", "/b", "", "")
	third := newRule("https://api.example.com", "/c", "", "")
	for _, r := range []*rule.Rule{first, second, third} {
		require.NoError(t, s.Add(r))
	}

	assert.True(t, s.Delete(second.ID))
	assert.False(t, s.Delete(second.ID))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, third.ID, list[1].ID)
	assert.Equal(t, third.ID, s.Get(third.ID).ID, "index stays consistent after shift")
}

func TestActivateResponse(t *testing.T) {
	s := NewMemoryStore()
	r := newRule("https://api.example.com", "/users", "", "")
	require.NoError(t, s.Add(r))

	updated, err := s.ActivateResponse(r.ID, "error")
	require.NoError(t, err)

	active := 0
	for _, v := range updated.Responses {
		if v.Active {
			active++
			assert.Equal(t, "error", v.Name)
		}
	}
	assert.Equal(t, 1, active)

	// The switch is visible through the store, not just the return value.
	got := s.Get(r.ID)
	assert.Equal(t, "error", got.ActiveResponse().Name)

	_, err = s.ActivateResponse(r.ID, "missing")
	assert.ErrorIs(t, err, ErrVariantNotFound)
	_, err = s.ActivateResponse("missing", "default")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	paths := []string{"/a", "/b", "/c", "/d"}
	for _, p := range paths {
		require.NoError(t, s.Add(newRule("https://api.example.com", p, "", "")))
	}
	list := s.List()
	require.Len(t, list, len(paths))
	for i, p := range paths {
		assert.Equal(t, p, list[i].Path)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")

	s := NewFileStore(path, logging.Nop())
	require.NoError(t, s.Open())

	first := newRule("https://api.example.com", "/users", "", "")
	second := newRule("https://api.example.com", "/posts", "", `{"a":1}`)
	require.NoError(t, s.Add(first))
	require.NoError(t, s.Add(second))
	_, err := s.ActivateResponse(first.ID, "error")
	require.NoError(t, err)

	reopened := NewFileStore(path, logging.Nop())
	require.NoError(t, reopened.Open())

	list := reopened.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, "error", list[0].ActiveResponse().Name)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, `{"a":1}`, list[1].Body)
}

func TestFileStoreDeleteRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")

	s := NewFileStore(path, logging.Nop())
	require.NoError(t, s.Open())
	r := newRule("https://api.example.com", "/users", "", "")
	require.NoError(t, s.Add(r))
	require.True(t, s.Delete(r.ID))

	reopened := NewFileStore(path, logging.Nop())
	require.NoError(t, reopened.Open())
	assert.Equal(t, 0, reopened.Count())
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "rules.json"), logging.Nop())
	require.NoError(t, s.Open())
	assert.Equal(t, 0, s.Count())
}

func TestFileStoreRejectsGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s := NewFileStore(path, logging.Nop())
	assert.Error(t, s.Open())
}

func TestFileStoreConcurrentAddsAllReachDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")

	s := NewFileStore(path, logging.Nop())
	require.NoError(t, s.Open())

	const workers = 20
	const perWorker = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				r := newRule("https://api.example.com", fmt.Sprintf("/w%d/r%d", w, i), "", "")
				assert.NoError(t, s.Add(r))
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, s.Count())

	// Every committed rule survives in the file, not just the ones from
	// whichever save happened to finish last.
	reopened := NewFileStore(path, logging.Nop())
	require.NoError(t, reopened.Open())
	assert.Equal(t, workers*perWorker, reopened.Count())
}
