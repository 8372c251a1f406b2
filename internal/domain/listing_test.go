package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/hn-links/internal/domain"
)

func TestParseSortField(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    domain.SortField
		wantErr bool
	}{
		{name: "empty defaults to updated", in: "", want: domain.SortByUpdated},
		{name: "updated", in: "updated", want: domain.SortByUpdated},
		{name: "author", in: "author", want: domain.SortByAuthor},
		{name: "clicks", in: "clicks", want: domain.SortByClicks},
		{name: "likes", in: "likes", want: domain.SortByLikes},
		{name: "unknown field rejected", in: "banana", wantErr: true},
		{name: "case sensitive", in: "AUTHOR", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseSortField(tt.in)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	_, err := domain.ParseSortOrder("sideways")
	assert.Error(t, err, "unknown order must be rejected")

	asc, err := domain.ParseSortOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, domain.SortAsc, asc)

	def, err := domain.ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, domain.SortDesc, def, "descending is the listing default")
}

func TestLinkID_DeterministicPerPair(t *testing.T) {
	a := domain.Link{CommentURL: "https://news.ycombinator.com/item?id=1", ExtractedLink: "https://a.example"}
	b := domain.Link{CommentURL: "https://news.ycombinator.com/item?id=1", ExtractedLink: "https://a.example"}
	c := domain.Link{CommentURL: "https://news.ycombinator.com/item?id=1", ExtractedLink: "https://b.example"}

	assert.Equal(t, a.ID(), b.ID(), "identical pairs share an id")
	assert.NotEqual(t, a.ID(), c.ID(), "different pairs get different ids")
}
