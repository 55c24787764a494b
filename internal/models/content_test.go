package models

import "testing"

// TestContentIsPublished verifies that only published posts count as
// visible usage.
func TestContentIsPublished(t *testing.T) {
	tests := []struct {
		name   string
		typ    ContentType
		status ContentStatus
		want   bool
	}{
		{name: "published post", typ: ContentTypePost, status: ContentStatusPublish, want: true},
		{name: "draft post", typ: ContentTypePost, status: ContentStatusDraft, want: false},
		{name: "hidden post", typ: ContentTypePost, status: ContentStatusHidden, want: false},
		{name: "published post_draft", typ: ContentTypePostDraft, status: ContentStatusPublish, want: false},
		{name: "published page", typ: ContentTypePage, status: ContentStatusPublish, want: false},
		{name: "empty status", typ: ContentTypePost, status: ContentStatus(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Content{Type: tt.typ, Status: tt.status}
			if got := c.IsPublished(); got != tt.want {
				t.Errorf("Content{Type: %q, Status: %q}.IsPublished() = %v, want %v",
					tt.typ, tt.status, got, tt.want)
			}
		})
	}
}

func TestContentStatusValid(t *testing.T) {
	for _, s := range []ContentStatus{"publish", "draft", "hidden", "private", "waiting"} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []ContentStatus{"", "published", "PUBLISH", "archived"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}
