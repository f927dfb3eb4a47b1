package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// JSON keys of the required movie fields.
const (
	FieldTitle     = "title"
	FieldIMDbID    = "imdb_id"
	FieldPosterURL = "poster_url"
)

var requiredFields = []string{FieldTitle, FieldIMDbID, FieldPosterURL}

// ErrMalformedPayload is returned when a payload is not valid JSON at all.
var ErrMalformedPayload = errors.New("domain: malformed movie payload")

// Movie is a single entry of a snapshot or of the stored collection. IMDbID is
// the deduplication key; everything else is payload.
type Movie struct {
	Title     string
	IMDbID    string
	PosterURL string
	// Extra keeps any additional fields published upstream so they survive a
	// read/write cycle untouched.
	Extra map[string]json.RawMessage
}

// MarshalJSON flattens the extra fields next to the required ones.
func (m Movie) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+len(requiredFields))
	for k, v := range m.Extra {
		out[k] = v
	}
	for key, val := range map[string]string{
		FieldTitle:     m.Title,
		FieldIMDbID:    m.IMDbID,
		FieldPosterURL: m.PosterURL,
	} {
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a single record and validates it.
func (m *Movie) UnmarshalJSON(data []byte) error {
	parsed, err := decodeMovie(-1, data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMovies decodes a JSON array of movies. A payload that is not valid
// JSON wraps ErrMalformedPayload; valid JSON that is not an array of records
// yields a *ValidationError.
func ParseMovies(data []byte) ([]Movie, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		// "null" decodes without error but is not an array.
		return nil, &ValidationError{Index: -1, Reason: "payload must be a JSON array"}
	}

	movies := make([]Movie, 0, len(items))
	for i, item := range items {
		movie, err := decodeMovie(i, item)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

// EncodeMovies renders a collection as a JSON array, "[]" when empty.
func EncodeMovies(movies []Movie) ([]byte, error) {
	if movies == nil {
		movies = []Movie{}
	}
	return json.Marshal(movies)
}

func decodeMovie(index int, data []byte) (Movie, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Movie{}, &ValidationError{Index: index, Reason: "record must be a JSON object"}
	}

	values := make(map[string]string, len(requiredFields))
	for _, key := range requiredFields {
		raw, ok := fields[key]
		if !ok {
			return Movie{}, &ValidationError{Index: index, Field: key, Reason: "field is required"}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || string(raw) == "null" {
			return Movie{}, &ValidationError{Index: index, Field: key, Reason: "field must be a string"}
		}
		values[key] = s
		delete(fields, key)
	}

	movie := Movie{
		Title:     values[FieldTitle],
		IMDbID:    values[FieldIMDbID],
		PosterURL: values[FieldPosterURL],
	}
	if len(fields) > 0 {
		movie.Extra = fields
	}
	return movie, nil
}
