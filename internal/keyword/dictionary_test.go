package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/florafind/internal/models"
)

func dictionaryRecords() []*models.Record {
	return []*models.Record{
		{ID: "1", EntryType: models.EntryTypeImage, Title: "Jammi Tree", Description: models.StringPtr("జమ్మి చెట్టు")},
		{ID: "2", EntryType: models.EntryTypeText, Title: "Neem", Content: models.StringPtr("Medicinal neem tree"), City: "Hyderabad"},
	}
}

func TestRecordDictionary_Rebuild(t *testing.T) {
	d := NewRecordDictionary()
	defer d.Close()

	require.NoError(t, d.Rebuild(dictionaryRecords()))
	assert.Equal(t, uint64(2), d.DocCount())

	for _, term := range []string{"jammi", "tree", "neem", "medicinal", "hyderabad", "జమ్మి"} {
		ok, err := d.ContainsTerm(term)
		require.NoError(t, err)
		assert.True(t, ok, term)
	}

	freq, err := d.GetTermFrequency("tree")
	require.NoError(t, err)
	assert.Equal(t, 2, freq)

	freq, err = d.GetTermFrequency("Neem")
	require.NoError(t, err)
	assert.Equal(t, 1, freq)

	terms, err := d.GetAllTerms()
	require.NoError(t, err)
	assert.IsIncreasing(t, terms)
}

func TestRecordDictionary_RebuildReplaces(t *testing.T) {
	d := NewRecordDictionary()
	defer d.Close()

	require.NoError(t, d.Rebuild(dictionaryRecords()))
	require.NoError(t, d.Rebuild([]*models.Record{{ID: "3", EntryType: models.EntryTypeText, Title: "Banyan"}, nil}))

	ok, _ := d.ContainsTerm("jammi")
	assert.False(t, ok)
	ok, _ = d.ContainsTerm("banyan")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), d.DocCount())
}

func TestRecordDictionary_Empty(t *testing.T) {
	d := NewRecordDictionary()

	terms, err := d.GetAllTerms()
	require.NoError(t, err)
	assert.Empty(t, terms)
	assert.NoError(t, d.Close())
}
