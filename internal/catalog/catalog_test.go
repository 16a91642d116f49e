package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	tests := map[string]SortKey{
		"":                 SortTitle,
		"title":            SortTitle,
		"author":           SortAuthor,
		"published_oldest": SortPublishedOldest,
		"published_newest": SortPublishedNewest,
		"title_reverse":    SortTitleReverse,
		"rating":           SortTitle,
		" author ":         SortAuthor,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSortKey(in), "input %q", in)
	}
}

func TestListMessage(t *testing.T) {
	assert.Equal(t, "All books:", ListMessage("", 0))
	assert.Equal(t, "All books:", ListMessage("", 3))
	assert.Equal(t, "Books matching 'dune':", ListMessage("dune", 2))
	assert.Equal(t, "No books found matching 'zzz'.", ListMessage("zzz", 0))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestAuthor_MarshalJSON(t *testing.T) {
	death := time.Date(1930, 3, 2, 0, 0, 0, 0, time.UTC)
	a := Author{ID: 3, Name: "D. H. Lawrence", BirthDate: time.Date(1885, 9, 11, 0, 0, 0, 0, time.UTC), DateOfDeath: &death}

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"name":"D. H. Lawrence","birth_date":"1885-09-11","date_of_death":"1930-03-02"}`, string(b))

	a.DateOfDeath = nil
	b, err = json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"name":"D. H. Lawrence","birth_date":"1885-09-11","date_of_death":null}`, string(b))
}

func TestValidationError_Error(t *testing.T) {
	err := invalid("isbn", "bad")
	assert.Equal(t, "validation failed: isbn: bad", err.Error())
}
