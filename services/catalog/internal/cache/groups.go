// Package cache provides group-tagged caching for derived read views
// and the static invalidation routing that keeps them coherent with
// catalog mutations.
package cache

// Group names a bucket of cached read results evicted as a unit.
type Group string

const (
	GroupSingleTrack   Group = "single-track"
	GroupListing       Group = "listing"
	GroupSearch        Group = "search"
	GroupTrending      Group = "trending"
	GroupTop           Group = "top"
	GroupArtistListing Group = "artist-listing"
	GroupAlbumListing  Group = "album-listing"
	GroupGenreListing  Group = "genre-listing"
)

// Mutation identifies a catalog mutation kind for invalidation routing.
type Mutation string

const (
	MutationTrackCreated Mutation = "track-created"
	MutationTrackUpdated Mutation = "track-updated"
	MutationTrackDeleted Mutation = "track-deleted"
	MutationLikeToggled  Mutation = "like-toggled"
)

// routing is the static table mapping each mutation kind to the cache
// groups whose contents could include the mutated track. Like toggles
// invalidate nothing: counts are read live from the track store.
var routing = map[Mutation][]Group{
	MutationTrackCreated: {GroupListing, GroupSearch, GroupTrending, GroupTop},
	MutationTrackUpdated: {GroupSingleTrack, GroupListing, GroupArtistListing, GroupAlbumListing, GroupGenreListing},
	MutationTrackDeleted: {GroupSingleTrack, GroupListing, GroupArtistListing, GroupAlbumListing, GroupGenreListing},
	MutationLikeToggled:  nil,
}

// GroupsFor returns the groups to evict for a mutation kind.
// Album and genre listing groups apply only when the track carries the
// corresponding field; pass them via the has arguments.
func GroupsFor(m Mutation, hasAlbum, hasGenre bool) []Group {
	base := routing[m]
	out := make([]Group, 0, len(base))
	for _, g := range base {
		if g == GroupAlbumListing && !hasAlbum {
			continue
		}
		if g == GroupGenreListing && !hasGenre {
			continue
		}
		out = append(out, g)
	}
	return out
}
