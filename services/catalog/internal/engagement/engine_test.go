package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/media-catalog/services/catalog/internal/cache"
	"github.com/example/media-catalog/services/catalog/internal/events"
	"github.com/example/media-catalog/services/catalog/internal/likes"
	"github.com/example/media-catalog/services/catalog/internal/store"
)

type fixture struct {
	engine *Engine
	tracks *store.InMemoryTrackStore
	likes  *likes.MemoryTracker
	cache  *cache.MemoryCache
	events *events.MemoryPublisher
}

func newFixture() *fixture {
	f := &fixture{
		tracks: store.NewInMemoryTrackStore(),
		likes:  likes.NewMemoryTracker(),
		cache:  cache.NewMemoryCache(),
		events: events.NewMemoryPublisher(),
	}
	f.engine = New(Options{
		Tracks: f.tracks,
		Likes:  f.likes,
		Cache:  f.cache,
		Events: f.events,
	})
	return f
}

func (f *fixture) createTrack(t *testing.T, title, artist, album, genre string) store.Track {
	t.Helper()
	tr, err := f.engine.CreateTrack(context.Background(), store.TrackInput{
		Title:           title,
		ArtistID:        artist,
		AlbumID:         album,
		Genre:           genre,
		DurationSeconds: 200,
	})
	if err != nil {
		t.Fatalf("create track: %v", err)
	}
	return tr
}

func (f *fixture) count(t *testing.T, id string) (plays, likeCount int64) {
	t.Helper()
	tr, err := f.tracks.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get track: %v", err)
	}
	return tr.PlayCount, tr.LikeCount
}

func TestRecordPlay_IncrementsByExactlyOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	for i := 0; i < 3; i++ {
		if err := f.engine.RecordPlay(ctx, tr.ID, "user-1"); err != nil {
			t.Fatalf("record play: %v", err)
		}
	}

	plays, _ := f.count(t, tr.ID)
	if plays != 3 {
		t.Fatalf("expected 3 plays, got %d", plays)
	}
}

func TestRecordPlay_Concurrent100(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = f.engine.RecordPlay(ctx, tr.ID, "")
		}()
	}
	wg.Wait()

	plays, _ := f.count(t, tr.ID)
	if plays != n {
		t.Fatalf("expected %d plays after concurrent calls, got %d", n, plays)
	}
}

func TestRecordPlay_NotFound(t *testing.T) {
	f := newFixture()
	if err := f.engine.RecordPlay(context.Background(), "missing", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	f.engine.Drain()
	if got := f.events.Events(); len(got) != 0 {
		t.Fatalf("no event should be emitted for a failed play, got %v", got)
	}
}

func TestRecordPlay_EmitsEvent(t *testing.T) {
	f := newFixture()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	if err := f.engine.RecordPlay(context.Background(), tr.ID, "user-1"); err != nil {
		t.Fatalf("record play: %v", err)
	}
	f.engine.Drain()

	var found bool
	for _, ev := range f.events.Events() {
		if ev.Kind == events.KindPlayRecorded && ev.TrackID == tr.ID && ev.UserID == "user-1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected PlayRecorded event, got %v", f.events.Events())
	}
}

func TestToggleLike_RoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	_, before := f.count(t, tr.ID)

	liked, err := f.engine.ToggleLike(ctx, tr.ID, "user-1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !liked {
		t.Fatal("first toggle must like")
	}
	_, after := f.count(t, tr.ID)
	if after != before+1 {
		t.Fatalf("expected like count %d, got %d", before+1, after)
	}

	liked, err = f.engine.ToggleLike(ctx, tr.ID, "user-1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if liked {
		t.Fatal("second toggle must unlike")
	}
	_, final := f.count(t, tr.ID)
	if final != before {
		t.Fatalf("like count must round-trip to %d, got %d", before, final)
	}
}

func TestToggleLike_FromZero(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	if _, err := f.engine.ToggleLike(ctx, tr.ID, "user-1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, likeCount := f.count(t, tr.ID); likeCount != 1 {
		t.Fatalf("expected 1 like, got %d", likeCount)
	}

	if _, err := f.engine.ToggleLike(ctx, tr.ID, "user-1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, likeCount := f.count(t, tr.ID); likeCount != 0 {
		t.Fatalf("expected 0 likes after unlike, got %d", likeCount)
	}
}

func TestToggleLike_TwoUsersScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "t1", "artist-1", "", "rock")

	liked, _ := f.engine.ToggleLike(ctx, tr.ID, "u1")
	if !liked {
		t.Fatal("u1 first toggle must like")
	}
	if _, c := f.count(t, tr.ID); c != 1 {
		t.Fatalf("expected count 1, got %d", c)
	}

	liked, _ = f.engine.ToggleLike(ctx, tr.ID, "u2")
	if !liked {
		t.Fatal("u2 first toggle must like")
	}
	if _, c := f.count(t, tr.ID); c != 2 {
		t.Fatalf("expected count 2, got %d", c)
	}

	liked, _ = f.engine.ToggleLike(ctx, tr.ID, "u1")
	if liked {
		t.Fatal("u1 second toggle must unlike")
	}
	if _, c := f.count(t, tr.ID); c != 1 {
		t.Fatalf("expected count 1, got %d", c)
	}

	if isLiked, _ := f.likes.IsLiked(ctx, "u2", tr.ID); !isLiked {
		t.Fatal("u2 membership must remain")
	}
	if isLiked, _ := f.likes.IsLiked(ctx, "u1", tr.ID); isLiked {
		t.Fatal("u1 membership must be gone")
	}
}

func TestToggleLike_ConcurrentSameUserNeverNegative(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = f.engine.ToggleLike(ctx, tr.ID, "user-1")
		}()
	}
	wg.Wait()

	if _, likeCount := f.count(t, tr.ID); likeCount < 0 {
		t.Fatalf("like count must never go negative, got %d", likeCount)
	}
}

func TestToggleLike_ConcurrentDifferentUsersBothApply(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		uid := string(rune('a' + i))
		go func() {
			defer wg.Done()
			_, _ = f.engine.ToggleLike(ctx, tr.ID, "user-"+uid)
		}()
	}
	wg.Wait()

	if _, likeCount := f.count(t, tr.ID); likeCount != n {
		t.Fatalf("expected %d likes from %d independent users, got %d", n, n, likeCount)
	}
}

func TestToggleLike_NotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.engine.ToggleLike(context.Background(), "missing", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleLike_EmitsDirectionalEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	_, _ = f.engine.ToggleLike(ctx, tr.ID, "user-1")
	_, _ = f.engine.ToggleLike(ctx, tr.ID, "user-1")
	f.engine.Drain()

	var directions []bool
	for _, ev := range f.events.Events() {
		if ev.Kind == events.KindLikeToggled {
			isLike, _ := ev.Extra["is_like"].(bool)
			directions = append(directions, isLike)
		}
	}
	if len(directions) != 2 || !directions[0] || directions[1] {
		t.Fatalf("expected like then unlike events, got %v", directions)
	}
}

func TestDeleteTrack_ThenMutationsAreNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	_ = f.engine.RecordPlay(ctx, tr.ID, "")

	if err := f.engine.DeleteTrack(ctx, tr.ID, "admin-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := f.engine.RecordPlay(ctx, tr.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := f.engine.ToggleLike(ctx, tr.ID, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if _, err := f.engine.GetTrack(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted track must not be readable, got %v", err)
	}
}

func TestCreateTrack_InvalidatesListingGroups(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Warm the listing and search caches.
	if _, err := f.engine.ListTracks(ctx, 0, 10); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := f.engine.SearchTracks(ctx, "a", 0, 10); err != nil {
		t.Fatalf("search: %v", err)
	}
	if f.cache.Len(cache.GroupListing) == 0 || f.cache.Len(cache.GroupSearch) == 0 {
		t.Fatal("expected warmed caches")
	}

	tr := f.createTrack(t, "New Song", "artist-1", "", "rock")

	if f.cache.Len(cache.GroupListing) != 0 {
		t.Fatal("listing group must be evicted on create")
	}
	if f.cache.Len(cache.GroupSearch) != 0 {
		t.Fatal("search group must be evicted on create")
	}

	// A direct single-track read reflects the new track immediately.
	got, err := f.engine.GetTrack(ctx, tr.ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if got.Title != "New Song" {
		t.Fatalf("expected fresh read, got %+v", got)
	}
}

func TestUpdateTrack_InvalidatesAndEmits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "album-1", "rock")

	if _, err := f.engine.TracksByAlbum(ctx, "album-1"); err != nil {
		t.Fatalf("by album: %v", err)
	}
	if f.cache.Len(cache.GroupAlbumListing) == 0 {
		t.Fatal("expected warmed album cache")
	}

	updated, err := f.engine.UpdateTrack(ctx, tr.ID, "artist-1", store.TrackUpdate{
		Title:           "B",
		AlbumID:         "album-1",
		Genre:           "rock",
		DurationSeconds: 210,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "B" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if f.cache.Len(cache.GroupAlbumListing) != 0 {
		t.Fatal("album listing group must be evicted on update")
	}

	f.engine.Drain()
	var kinds []events.Kind
	for _, ev := range f.events.Events() {
		kinds = append(kinds, ev.Kind)
	}
	var sawUpdate bool
	for _, k := range kinds {
		if k == events.KindTrackUpdated {
			sawUpdate = true
		}
	}
	if !sawUpdate {
		t.Fatalf("expected TrackUpdated event, got %v", kinds)
	}
}

func TestUpdateTrack_ClearingAlbumEvictsOldAlbumListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "album-1", "rock")

	before, err := f.engine.TracksByAlbum(ctx, "album-1")
	if err != nil {
		t.Fatalf("by album: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("expected 1 track in album-1, got %d", len(before))
	}
	if f.cache.Len(cache.GroupAlbumListing) == 0 {
		t.Fatal("expected warmed album cache")
	}

	// Move the track out of the album; the listing cached under the
	// old album id must not keep serving it.
	if _, err := f.engine.UpdateTrack(ctx, tr.ID, "artist-1", store.TrackUpdate{
		Title:           "A",
		AlbumID:         "",
		Genre:           "rock",
		DurationSeconds: 200,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if f.cache.Len(cache.GroupAlbumListing) != 0 {
		t.Fatal("album listing group must be evicted when a track leaves its album")
	}
	after, err := f.engine.TracksByAlbum(ctx, "album-1")
	if err != nil {
		t.Fatalf("by album after update: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("album-1 must no longer list the moved track, got %d", len(after))
	}
}

func TestUpdateTrack_ClearingGenreEvictsOldGenreListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	if _, err := f.engine.TracksByGenre(ctx, "rock", 0, 10); err != nil {
		t.Fatalf("by genre: %v", err)
	}
	if f.cache.Len(cache.GroupGenreListing) == 0 {
		t.Fatal("expected warmed genre cache")
	}

	if _, err := f.engine.UpdateTrack(ctx, tr.ID, "artist-1", store.TrackUpdate{
		Title:           "A",
		Genre:           "",
		DurationSeconds: 200,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if f.cache.Len(cache.GroupGenreListing) != 0 {
		t.Fatal("genre listing group must be evicted when a track leaves its genre")
	}
}

func TestLikeToggle_DoesNotTouchCaches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	if _, err := f.engine.ListTracks(ctx, 0, 10); err != nil {
		t.Fatalf("list: %v", err)
	}
	warm := f.cache.Len(cache.GroupListing)
	if warm == 0 {
		t.Fatal("expected warmed listing cache")
	}

	_, _ = f.engine.ToggleLike(ctx, tr.ID, "user-1")

	if f.cache.Len(cache.GroupListing) != warm {
		t.Fatal("like toggle must not evict listing caches")
	}
}

func TestEventPublishFailure_DoesNotAffectCaller(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tr := f.createTrack(t, "A", "artist-1", "", "rock")

	f.events.Fail = errors.New("broker down")

	if err := f.engine.RecordPlay(ctx, tr.ID, "user-1"); err != nil {
		t.Fatalf("publish failure must not surface, got %v", err)
	}
	f.engine.Drain()

	plays, _ := f.count(t, tr.ID)
	if plays != 1 {
		t.Fatalf("counter mutation must stand despite publish failure, got %d", plays)
	}
}

func TestListKey_CallerTextCannotCollide(t *testing.T) {
	// Under naive concatenation these two requests would share the key
	// "q=a&page=1&page=2".
	a := listKey("q", "a&page=1", "page", "2")
	b := listKey("q", "a", "page", "1&page=2")
	if a == b {
		t.Fatalf("distinct requests must get distinct keys, both got %q", a)
	}
	if got := listKey("q", "a&b=c"); got != "q=a%26b%3Dc" {
		t.Fatalf("expected percent-encoded value, got %q", got)
	}
}

func TestCachedList_ServesFromCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.createTrack(t, "A", "artist-1", "", "rock")

	first, err := f.engine.ListTracks(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 track, got %d", len(first))
	}

	// Create bypassing the engine: the cached view must still serve the
	// old result until the group is evicted.
	_, err = f.tracks.Create(ctx, store.TrackInput{Title: "B", ArtistID: "artist-1"})
	if err != nil {
		t.Fatalf("raw create: %v", err)
	}

	second, err := f.engine.ListTracks(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected cached view with 1 track, got %d", len(second))
	}
}
