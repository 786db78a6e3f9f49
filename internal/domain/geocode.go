package domain

import (
	"context"
	"log/slog"
)

// ResolveCoordinates fills in coordinates for records the static table did
// not cover, using the geocoder when one is configured. Failures leave the
// coordinates absent (graceful degradation).
func ResolveCoordinates(ctx context.Context, rec BeachStatusRecord, geocoder Geocoder, logger *slog.Logger) BeachStatusRecord {
	if rec.Coordinates != nil || geocoder == nil {
		return rec
	}

	c, err := geocoder.ForwardGeocode(ctx, rec.BeachName)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"beach", rec.BeachName,
			"error", err,
		)
		return rec
	}
	if c.Lat == 0 && c.Lon == 0 {
		logger.Debug("geocoder returned no match", "beach", rec.BeachName)
		return rec
	}
	rec.Coordinates = &c
	return rec
}
