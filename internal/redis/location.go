package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	driverLocationKey = "drivers:locations"
	driverSeenKey     = "drivers:seen"
)

// LocationFreshness is how long a reported position counts for nearby searches.
const LocationFreshness = 10 * time.Minute

// DriverLocation is a driver's last reported position. DistKm is set by
// FindNearbyDrivers.
type DriverLocation struct {
	DriverID int64
	Lat      float64
	Lng      float64
	DistKm   float64
}

// LocationStore keeps the driver GEO index used to suggest drivers for a
// pickup. A companion sorted set records when each driver last reported.
type LocationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client, now: time.Now}
}

func member(driverID int64) string {
	return strconv.FormatInt(driverID, 10)
}

// UpdateLocation records a driver's position and the time it was reported.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID int64, lat, lng float64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
			Name:      member(driverID),
			Longitude: lng,
			Latitude:  lat,
		})
		pipe.ZAdd(ctx, driverSeenKey, redis.Z{Score: float64(s.now().Unix()), Member: member(driverID)})
		return nil
	})
	return err
}

// GetLocation returns the last known position of a driver, or nil.
func (s *LocationStore) GetLocation(ctx context.Context, driverID int64) (*DriverLocation, error) {
	positions, err := s.client.GeoPos(ctx, driverLocationKey, member(driverID)).Result()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &DriverLocation{DriverID: driverID, Lat: positions[0].Latitude, Lng: positions[0].Longitude}, nil
}

// FindNearbyDrivers returns drivers within radiusKm of the point, nearest
// first, skipping anyone who has not reported within LocationFreshness.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error) {
	results, err := s.client.GeoRadius(ctx, driverLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	members := make([]string, len(results))
	for i, r := range results {
		members[i] = r.Name
	}
	seen, err := s.client.ZMScore(ctx, driverSeenKey, members...).Result()
	if err != nil {
		return nil, err
	}

	cutoff := float64(s.now().Add(-LocationFreshness).Unix())
	locations := make([]DriverLocation, 0, len(results))
	for i, r := range results {
		if i >= len(seen) || seen[i] < cutoff {
			continue
		}
		id, err := strconv.ParseInt(r.Name, 10, 64)
		if err != nil {
			continue
		}
		locations = append(locations, DriverLocation{
			DriverID: id,
			Lat:      r.Latitude,
			Lng:      r.Longitude,
			DistKm:   r.Dist,
		})
	}
	return locations, nil
}

// RemoveLocation drops a driver from the index, e.g. when they go offline.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, driverLocationKey, member(driverID))
		pipe.ZRem(ctx, driverSeenKey, member(driverID))
		return nil
	})
	return err
}
