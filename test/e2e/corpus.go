// Package e2e provides end-to-end tests with a bilingual corpus and multiple queries.
package e2e

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/florafind/internal/models"
)

// Species is one corpus entry: an English name, its Telugu name and a signature
// phrase that appears only in its own record.
type Species struct {
	Name      string
	Telugu    string
	Signature string
	Category  string
	City      string
}

// QueryTestCase defines a query and the record ID(s) that must appear in search results.
type QueryTestCase struct {
	Query           string
	ExpectedIDs     []string
	Description     string
	WantMediaAnswer bool
}

// Corpus holds records and query test cases for E2E tests.
type Corpus struct {
	Records      []*models.Record
	TestCases    []QueryTestCase
	TotalRecords int
	TotalQueries int
}

var species = []Species{
	{"Jammi Tree", "జమ్మి", "worshipped during Dasara", "tree", "Warangal"},
	{"Neem Tree", "వేప", "natural pesticide leaves", "tree", "Hyderabad"},
	{"Banyan Tree", "మర్రి", "aerial prop roots", "tree", "Bangalore"},
	{"Peepal Tree", "రావి", "heart shaped leaves", "tree", "Varanasi"},
	{"Mango Tree", "మామిడి", "summer fruit orchards", "tree", "Vijayawada"},
	{"Coconut Palm", "కొబ్బరి", "coastal tender water", "tree", "Kakinada"},
	{"Indian Peacock", "నెమలి", "iridescent tail feathers", "bird", "Nallamala"},
	{"House Sparrow", "పిచ్చుక", "declining urban nests", "bird", "Guntur"},
	{"Indian Roller", "పాలపిట్ట", "state bird sighting", "bird", "Khammam"},
	{"Spotted Owlet", "గుడ్లగూబ", "nocturnal hooting calls", "bird", "Nizamabad"},
	{"Blackbuck", "కృష్ణజింక", "spiral horned antelope", "mammal", "Mahavir"},
	{"Bengal Tiger", "పులి", "striped apex predator", "mammal", "Amrabad"},
	{"Indian Cobra", "నాగుపాము", "spectacled hood venom", "reptile", "Srikakulam"},
	{"Tamarind", "చింత", "sour pulp pods", "tree", "Anantapur"},
	{"Lotus", "తామర", "floating pond blossom", "flower", "Tirupati"},
	{"Jasmine", "మల్లె", "fragrant evening garlands", "flower", "Madurai"},
	{"Tulsi", "తులసి", "sacred basil courtyard", "herb", "Puri"},
	{"Palmyra Palm", "తాటి", "toddy sap harvest", "tree", "Nellore"},
	{"Flying Fox", "గబ్బిలం", "fruit bat colony", "mammal", "Kurnool"},
	{"Olive Ridley", "తాబేలు", "nesting turtle beaches", "reptile", "Visakhapatnam"},
}

var entryTypes = []models.EntryType{
	models.EntryTypeText, models.EntryTypeImage, models.EntryTypeAudio, models.EntryTypeVideo,
}

// BuildCorpus returns a corpus with one record per species and entry type. Media
// records carry a file URL.
func BuildCorpus() *Corpus {
	records := buildRecords()
	cases := buildQueryTestCases()
	return &Corpus{
		Records:      records,
		TestCases:    cases,
		TotalRecords: len(records),
		TotalQueries: len(cases),
	}
}

// RecordID returns the corpus id for the species at index i and entry type t.
func RecordID(i int, t models.EntryType) string {
	return fmt.Sprintf("e2e-%02d-%s", i+1, t)
}

func buildRecords() []*models.Record {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Record, 0, len(species)*len(entryTypes))
	for i, s := range species {
		for j, t := range entryTypes {
			rec := &models.Record{
				ID:          RecordID(i, t),
				EntryType:   t,
				Title:       s.Name,
				Description: models.StringPtr(fmt.Sprintf("%s (%s): %s.", s.Name, s.Telugu, s.Signature)),
				Category:    models.StringPtr(s.Category),
				Tags:        models.StringPtr(strings.Join([]string{s.Category, s.Telugu}, ", ")),
				City:        s.City,
				Country:     "India",
				Latitude:    15 + float64(i)/10,
				Longitude:   78 + float64(j)/10,
				Timestamp:   base.Add(time.Duration(i*len(entryTypes)+j) * time.Hour),
			}
			if t == models.EntryTypeText {
				rec.Content = models.StringPtr(fmt.Sprintf("Field notes on the %s near %s.", strings.ToLower(s.Name), s.City))
			} else {
				rec.FileURL = models.StringPtr(fmt.Sprintf("https://media.example.org/%s.%s", rec.ID, t))
			}
			out = append(out, rec)
		}
	}
	return out
}

func buildQueryTestCases() []QueryTestCase {
	var cases []QueryTestCase
	for i, s := range species {
		cases = append(cases,
			QueryTestCase{
				Query:       s.Signature,
				ExpectedIDs: idsFor(i),
				Description: fmt.Sprintf("signature %q finds %s", s.Signature, s.Name),
			},
			QueryTestCase{
				Query:       s.Telugu,
				ExpectedIDs: idsFor(i),
				Description: fmt.Sprintf("telugu name %s finds %s", s.Telugu, s.Name),
			},
		)
	}
	cases = append(cases,
		QueryTestCase{
			Query:           "show me photos of the peacock",
			ExpectedIDs:     []string{RecordID(6, models.EntryTypeImage)},
			Description:     "media intent surfaces the peacock image",
			WantMediaAnswer: true,
		},
		QueryTestCase{
			Query:           "వేప చెట్టు",
			ExpectedIDs:     idsFor(1),
			Description:     "telugu phrase with tree suffix finds neem",
			WantMediaAnswer: true,
		},
	)
	return cases
}

func idsFor(i int) []string {
	ids := make([]string, len(entryTypes))
	for j, t := range entryTypes {
		ids[j] = RecordID(i, t)
	}
	return ids
}

// ContainsAny reports whether got holds at least one expected id.
func ContainsAny(got, expected []string) bool {
	set := make(map[string]bool, len(got))
	for _, id := range got {
		set[id] = true
	}
	for _, id := range expected {
		if set[id] {
			return true
		}
	}
	return false
}
