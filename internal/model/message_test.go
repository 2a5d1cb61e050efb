package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationID_IsOrderIndependent(t *testing.T) {
	a := ConversationID(12, 3, 7)
	b := ConversationID(3, 12, 7)

	assert.Equal(t, "3-7-12", a)
	assert.Equal(t, a, b)
}

func TestParseConversationID(t *testing.T) {
	ids, err := ParseConversationID("3-7-12")
	require.NoError(t, err)
	assert.Equal(t, [3]int64{3, 7, 12}, ids)

	for _, bad := range []string{"", "1-2", "1-2-3-4", "a-2-3", "0-2-3", "-1-2"} {
		_, err := ParseConversationID(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseBookmarkTarget(t *testing.T) {
	target, err := ParseBookmarkTarget("tutor", 5)
	require.NoError(t, err)
	assert.Equal(t, TutorTarget(5), target)

	target, err = ParseBookmarkTarget("tuition", 9)
	require.NoError(t, err)
	assert.Equal(t, BookmarkKindTuition, target.Kind)

	_, err = ParseBookmarkTarget("course", 1)
	assert.Error(t, err)
}

func TestPage_Result(t *testing.T) {
	page := NewPage(0, 0, DefaultPageLimit)
	assert.Equal(t, Page{Page: 1, Limit: DefaultPageLimit}, page)
	assert.Equal(t, 0, page.Offset())

	page = NewPage(3, 500, DefaultPageLimit)
	assert.Equal(t, MaxPageLimit, page.Limit)
	assert.Equal(t, 200, page.Offset())

	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 21, Pages: 3}, Page{Page: 2, Limit: 10}.Result(21))
}
