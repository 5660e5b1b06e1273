package dataset_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/dataset"
)

const usersJSON = `{
  "dealer": {
    "email": "dealer@example.com",
    "name": "Salman",
    "active": true,
    "nav": ["Products", "Shop"],
    "address": {"city": "Dresden"}
  },
  "broken": "not an object",
  "bad_fields": {"email": 42, "active": "yes", "nav": [1]}
}`

func load(t *testing.T) *dataset.Dataset {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "testdata/users.json", []byte(usersJSON), 0o644))
	ds, err := dataset.Load(fs, "testdata/users.json")
	require.NoError(t, err)
	return ds
}

func TestDataset_Record(t *testing.T) {
	ds := load(t)

	assert.Equal(t, []string{"bad_fields", "broken", "dealer"}, ds.Names())

	rec, err := ds.Record("dealer")
	require.NoError(t, err)
	assert.Equal(t, "dealer", rec.Name())

	email, err := rec.String("email")
	require.NoError(t, err)
	assert.Equal(t, "dealer@example.com", email)

	city, err := rec.String("address.city")
	require.NoError(t, err)
	assert.Equal(t, "Dresden", city)

	active, err := rec.Bool("active")
	require.NoError(t, err)
	assert.True(t, active)

	nav, err := rec.Strings("nav")
	require.NoError(t, err)
	assert.Equal(t, []string{"Products", "Shop"}, nav)

	assert.Equal(t, "fallback", rec.StringOr("password", "fallback"))
	assert.False(t, rec.Has("password"))
}

func TestDataset_Decode(t *testing.T) {
	rec, err := load(t).Record("dealer")
	require.NoError(t, err)

	var user struct {
		Email string   `json:"email"`
		Name  string   `json:"name"`
		Nav   []string `json:"nav"`
	}
	require.NoError(t, rec.Decode(&user))
	assert.Equal(t, "Salman", user.Name)
	assert.Len(t, user.Nav, 2)
}

func TestDataset_BrokenRecordsStayIsolated(t *testing.T) {
	ds := load(t)

	_, err := ds.Record("broken")
	assert.ErrorIs(t, err, dataset.ErrMalformedRecord)

	_, err = ds.Record("missing")
	assert.ErrorIs(t, err, dataset.ErrRecordNotFound)

	rec, err := ds.Record("bad_fields")
	require.NoError(t, err)
	_, err = rec.String("email")
	assert.ErrorIs(t, err, dataset.ErrMalformedRecord)
	_, err = rec.Bool("active")
	assert.ErrorIs(t, err, dataset.ErrMalformedRecord)
	_, err = rec.Strings("nav")
	assert.ErrorIs(t, err, dataset.ErrMalformedRecord)

	var wrong struct {
		Email string `json:"email"`
	}
	assert.ErrorIs(t, rec.Decode(&wrong), dataset.ErrMalformedRecord)

	// The valid record is unaffected
	_, err = ds.Record("dealer")
	assert.NoError(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "truncated.json", []byte(`{"dealer": {"email":`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "list.json", []byte(`[{"email": "x"}]`), 0o644))

	_, err := dataset.Load(fs, "truncated.json")
	assert.ErrorIs(t, err, dataset.ErrMalformedFile)

	_, err = dataset.Load(fs, "list.json")
	assert.ErrorIs(t, err, dataset.ErrMalformedFile)

	_, err = dataset.Load(fs, "missing.json")
	assert.Error(t, err)
}
