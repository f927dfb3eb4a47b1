package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMovies(t *testing.T) {
	t.Parallel()

	payload := `[
		{"title":"Inception","imdb_id":"tt1375666","poster_url":"https://img/1.jpg","year":2010},
		{"title":"","imdb_id":"tt0000001","poster_url":""}
	]`

	movies, err := ParseMovies([]byte(payload))
	require.NoError(t, err)
	require.Len(t, movies, 2)

	assert.Equal(t, "Inception", movies[0].Title)
	assert.Equal(t, "tt1375666", movies[0].IMDbID)
	assert.Equal(t, "https://img/1.jpg", movies[0].PosterURL)
	assert.JSONEq(t, "2010", string(movies[0].Extra["year"]))
	assert.Nil(t, movies[1].Extra)
}

func TestParseMovies_Malformed(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"", "not json", "<html>", `[{"title":"x"`, `{"title":`} {
		_, err := ParseMovies([]byte(payload))
		require.Error(t, err, "payload %q", payload)
		assert.True(t, errors.Is(err, ErrMalformedPayload), "payload %q: %v", payload, err)
	}
}

func TestParseMovies_ValidJSONNotAnArray(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{`{}`, `{"error":"quota"}`, `"x"`, `42`, `null`, `true`} {
		_, err := ParseMovies([]byte(payload))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "payload %q", payload)
		assert.Equal(t, -1, verr.Index)
		assert.False(t, errors.Is(err, ErrMalformedPayload), "payload %q", payload)
	}
}

func TestParseMovies_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   string
		wantIndex int
		wantField string
	}{
		{
			name:      "element is not an object",
			payload:   `[1]`,
			wantIndex: 0,
		},
		{
			name:      "missing imdb id",
			payload:   `[{"title":"A","imdb_id":"tt1","poster_url":"p"},{"title":"B","poster_url":"p"}]`,
			wantIndex: 1,
			wantField: FieldIMDbID,
		},
		{
			name:      "numeric title",
			payload:   `[{"title":7,"imdb_id":"tt1","poster_url":"p"}]`,
			wantIndex: 0,
			wantField: FieldTitle,
		},
		{
			name:      "null poster",
			payload:   `[{"title":"A","imdb_id":"tt1","poster_url":null}]`,
			wantIndex: 0,
			wantField: FieldPosterURL,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseMovies([]byte(tt.payload))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantIndex, verr.Index)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.False(t, errors.Is(err, ErrMalformedPayload))
		})
	}
}

func TestEncodeMovies_RoundTripKeepsExtraFields(t *testing.T) {
	t.Parallel()

	in := `[{"title":"Heat","imdb_id":"tt0113277","poster_url":"p","rating":{"imdb":8.3}}]`
	movies, err := ParseMovies([]byte(in))
	require.NoError(t, err)

	out, err := EncodeMovies(movies)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestEncodeMovies_Empty(t *testing.T) {
	t.Parallel()

	out, err := EncodeMovies(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestMovieUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var m Movie
	require.NoError(t, json.Unmarshal([]byte(`{"title":"A","imdb_id":"tt1","poster_url":"p"}`), &m))
	assert.Equal(t, "tt1", m.IMDbID)

	err := json.Unmarshal([]byte(`{"title":"A"}`), &m)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, -1, verr.Index)
}
