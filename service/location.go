package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ncobase/passport/cache"
	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/structs"
)

const (
	locationTTL  = time.Hour
	favoritesKey = "location:favorites"
)

// LocationService caches per-user location data in redis: the latest reported
// position, a set of favorite places and per-place visit counters.
type LocationService struct {
	rc        *redis.Client
	locations *cache.Cache[structs.UserLocation]
	visits    *cache.Cache[int64]
}

// NewLocationService creates the location service. Returns nil when redis is
// not configured; callers skip the location endpoints in that case.
func NewLocationService(rc *redis.Client) *LocationService {
	if rc == nil {
		return nil
	}
	return &LocationService{
		rc:        rc,
		locations: cache.NewCache[structs.UserLocation](rc, "location:current"),
		visits:    cache.NewCache[int64](rc, "location:visits"),
	}
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func favoritesSetKey(userID int64) string {
	return favoritesKey + ":" + userKey(userID)
}

// SetLocation stores the user's latest position with a one-hour TTL.
func (s *LocationService) SetLocation(ctx context.Context, userID int64, loc *structs.UserLocation) error {
	if loc.Timestamp == 0 {
		loc.Timestamp = time.Now().Unix()
	}
	if err := s.locations.Set(ctx, userKey(userID), loc, locationTTL); err != nil {
		return ecode.New(ecode.ServerErr).WithCause(err)
	}
	return nil
}

// GetLocation returns the user's latest cached position.
func (s *LocationService) GetLocation(ctx context.Context, userID int64) (*structs.UserLocation, error) {
	loc, err := s.locations.Get(ctx, userKey(userID))
	if errors.Is(err, redis.Nil) {
		return nil, ecode.NotFound("Location", userKey(userID))
	}
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return loc, nil
}

// AddFavorite adds a place to the user's favorite set. SADD is atomic, so
// concurrent adds never lose members.
func (s *LocationService) AddFavorite(ctx context.Context, userID int64, place string) ([]string, error) {
	if err := s.rc.SAdd(ctx, favoritesSetKey(userID), place).Err(); err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return s.Favorites(ctx, userID)
}

// RemoveFavorite removes a place from the user's favorite set.
func (s *LocationService) RemoveFavorite(ctx context.Context, userID int64, place string) ([]string, error) {
	if err := s.rc.SRem(ctx, favoritesSetKey(userID), place).Err(); err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return s.Favorites(ctx, userID)
}

// Favorites returns the user's favorite places, sorted for stable output.
func (s *LocationService) Favorites(ctx context.Context, userID int64) ([]string, error) {
	places, err := s.rc.SMembers(ctx, favoritesSetKey(userID)).Result()
	if err != nil {
		return nil, ecode.New(ecode.ServerErr).WithCause(err)
	}
	if places == nil {
		places = []string{}
	}
	sort.Strings(places)
	return places, nil
}

// RecordVisit increments and returns the user's visit counter for a place.
func (s *LocationService) RecordVisit(ctx context.Context, userID int64, place string) (int64, error) {
	n, err := s.visits.Incr(ctx, userKey(userID)+":"+place)
	if err != nil {
		return 0, ecode.New(ecode.ServerErr).WithCause(err)
	}
	return n, nil
}
