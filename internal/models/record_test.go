package models

import (
	"errors"
	"testing"
)

func TestParseEntryType(t *testing.T) {
	tests := []struct {
		in      string
		want    EntryType
		wantErr bool
	}{
		{"text", EntryTypeText, false},
		{"Audio", EntryTypeAudio, false},
		{" video ", EntryTypeVideo, false},
		{"images", EntryTypeImage, false},
		{"image", EntryTypeImage, false},
		{"spreadsheet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntryType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEntryType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("error should wrap ErrInvalidRecord: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntryType_IsMedia(t *testing.T) {
	if EntryTypeText.IsMedia() {
		t.Error("text is not media")
	}
	for _, et := range []EntryType{EntryTypeImage, EntryTypeAudio, EntryTypeVideo} {
		if !et.IsMedia() {
			t.Errorf("%s should be media", et)
		}
	}
}

func TestRecord_SearchableFields(t *testing.T) {
	r := &Record{
		ID:          "r1",
		Title:       "Jammi Tree",
		Description: StringPtr("జమ్మి చెట్టు"),
		Content:     nil,
		Category:    StringPtr("   "),
		Tags:        StringPtr("sacred,tree"),
		City:        "Hyderabad",
		Country:     "",
	}
	fields := r.SearchableFields()
	want := []string{FieldTitle, FieldDescription, FieldTags, FieldCity}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields %+v, want %v", len(fields), fields, want)
	}
	for i, f := range fields {
		if f.Name != want[i] {
			t.Errorf("field %d: got %s, want %s", i, f.Name, want[i])
		}
	}
}

func TestRecord_Validate(t *testing.T) {
	valid := Record{ID: "r1", Title: "Neem", EntryType: EntryTypeImage, Latitude: 17.4, Longitude: 78.5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"empty id", func(r *Record) { r.ID = " " }},
		{"empty title", func(r *Record) { r.Title = "" }},
		{"unknown type", func(r *Record) { r.EntryType = "pdf" }},
		{"latitude out of range", func(r *Record) { r.Latitude = 91 }},
		{"longitude out of range", func(r *Record) { r.Longitude = -181 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("error should wrap ErrInvalidRecord: %v", err)
			}
		})
	}
}

func TestRecord_NormalizeCanonicalizesEntryType(t *testing.T) {
	r := &Record{ID: "r1", Title: "Mumbai Skyline", EntryType: "Images"}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if r.EntryType != EntryTypeImage || !r.EntryType.IsMedia() {
		t.Errorf("EntryType = %q, want %q", r.EntryType, EntryTypeImage)
	}

	bad := &Record{ID: "r2", Title: "x", EntryType: "painting"}
	if err := bad.Normalize(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Normalize() error = %v, want ErrInvalidRecord", err)
	}
	if bad.EntryType != "painting" {
		t.Errorf("invalid record should keep its entry type, got %q", bad.EntryType)
	}
}

func TestRecord_TagListAndLocation(t *testing.T) {
	r := &Record{Tags: StringPtr(" neem, ,medicinal ,"), City: "Guntur"}
	tags := r.TagList()
	if len(tags) != 2 || tags[0] != "neem" || tags[1] != "medicinal" {
		t.Errorf("TagList() = %v", tags)
	}
	if r.Location() != "Guntur, Unknown" {
		t.Errorf("Location() = %q", r.Location())
	}
}

func TestRecord_MediaURL(t *testing.T) {
	r := &Record{}
	if r.MediaURL() != "" {
		t.Error("nil file url should be empty")
	}
	r.FileURL = StringPtr(" http://x/y.jpg ")
	if r.MediaURL() != "http://x/y.jpg" {
		t.Errorf("MediaURL() = %q", r.MediaURL())
	}
}

func TestScoreBreakdown_Total(t *testing.T) {
	b := ScoreBreakdown{Substring: 5, Field: 4, Token: 4, Fuzzy: 1, MultiTerm: 2, MediaBoost: 10}
	if b.Total() != 26 {
		t.Errorf("Total() = %d", b.Total())
	}
}
