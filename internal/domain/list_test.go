package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestList_AddPaper(t *testing.T) {
	l := &List{}

	assert.True(t, l.AddPaper(1))
	assert.True(t, l.AddPaper(2))
	assert.Equal(t, []int64{1, 2}, l.PaperIDs)

	// Duplicates are rejected.
	assert.False(t, l.AddPaper(1))
	assert.Equal(t, []int64{1, 2}, l.PaperIDs)
}

func TestList_RemovePaper(t *testing.T) {
	l := &List{PaperIDs: []int64{1, 2, 3}}

	assert.True(t, l.RemovePaper(2))
	assert.Equal(t, []int64{1, 3}, l.PaperIDs)

	assert.False(t, l.RemovePaper(2))
	assert.Equal(t, []int64{1, 3}, l.PaperIDs)
}

func TestList_VisibleTo(t *testing.T) {
	tests := []struct {
		name    string
		list    *List
		userID  string
		visible bool
	}{
		{"public list, anonymous", &List{Public: true}, "", true},
		{"public list, other user", &List{Public: true, OwnerID: "user_a"}, "user_b", true},
		{"private list, owner", &List{OwnerID: "user_a"}, "user_a", true},
		{"private list, other user", &List{OwnerID: "user_a"}, "user_b", false},
		{"private list, anonymous", &List{OwnerID: "user_a"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, tt.list.VisibleTo(tt.userID))
		})
	}
}

func TestNormalizeTagName(t *testing.T) {
	assert.Equal(t, "to-review", NormalizeTagName("  To-Review "))
	assert.Equal(t, "ml", NormalizeTagName("ML"))
}
