package ecml

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/ExCiteS/geokey-epicollect/models"
	"github.com/ExCiteS/geokey-epicollect/utils"
)

// Decode errors. Both reject the whole submission; the upload endpoint
// answers with zero accepted records and nothing is persisted.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrMissingLocation  = errors.New("missing or invalid location")
)

// staticFields are the system properties every submission carries next
// to the schema fields. They keep their bare keys on export.
var staticFields = []string{
	"unique_id", "DeviceID", "location_acc", "location_provider",
	"location_alt", "location_bearing",
}

// PendingMedia is an attachment token surfaced by a data submission. The
// binary arrives in a separate upload; linking it is best-effort and
// never affects the already decoded observation.
type PendingMedia struct {
	Kind  string // "photo" or "video"
	Token string
}

// SubmissionDecoder maps flat EpiCollect form data onto observations.
type SubmissionDecoder struct{}

// NewSubmissionDecoder creates a new submission decoder
func NewSubmissionDecoder() *SubmissionDecoder {
	return &SubmissionDecoder{}
}

// Decode turns one submission into an observation for the given project.
// Categories must be the project's active schema. The device id arrives
// out-of-band (the client sends it as a query parameter) and is passed
// in explicitly by the caller. Decode does not persist anything.
func (d *SubmissionDecoder) Decode(form url.Values, deviceID string, project *models.Project, categories []models.Category) (*models.Observation, []PendingMedia, error) {
	category, err := resolveCategory(form.Get("category"), categories)
	if err != nil {
		return nil, nil, err
	}

	point, err := resolveLocation(form)
	if err != nil {
		return nil, nil, err
	}

	properties := models.Properties{
		"location_acc":      optional(form, "location_acc"),
		"location_provider": optional(form, "location_provider"),
		"location_alt":      optional(form, "location_alt"),
		"location_bearing":  optional(form, "location_bearing"),
		"unique_id":         optional(form, "unique_id"),
	}
	if deviceID != "" {
		properties["DeviceID"] = deviceID
	} else {
		properties["DeviceID"] = nil
	}

	for i := range category.Fields {
		field := &category.Fields[i]

		value, err := DecodeValue(field, form.Get(field.CompositeKey()))
		if err != nil {
			return nil, nil, err
		}
		properties[field.Key] = value
	}

	observation := &models.Observation{
		ProjectID:  project.ID,
		CategoryID: category.ID,
		Longitude:  point.Lon(),
		Latitude:   point.Lat(),
		Properties: properties,
	}

	var media []PendingMedia
	if token := form.Get("photo"); token != "" {
		media = append(media, PendingMedia{Kind: "photo", Token: token})
	}
	if token := form.Get("video"); token != "" {
		media = append(media, PendingMedia{Kind: "video", Token: token})
	}

	return observation, media, nil
}

// resolveCategory matches the submitted category id against the active
// schema.
func resolveCategory(raw string, categories []models.Category) (*models.Category, error) {
	if raw == "" {
		return nil, ErrCategoryNotFound
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	for i := range categories {
		if categories[i].ID == uint(id) {
			return &categories[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}

// resolveLocation extracts the point geometry. Observations are never
// stored without usable coordinates.
func resolveLocation(form url.Values) (orb.Point, error) {
	lon, err := strconv.ParseFloat(form.Get("location_lon"), 64)
	if err != nil {
		return orb.Point{}, ErrMissingLocation
	}
	lat, err := strconv.ParseFloat(form.Get("location_lat"), 64)
	if err != nil {
		return orb.Point{}, ErrMissingLocation
	}

	point := orb.Point{lon, lat}
	if !utils.ValidCoordinate(point) {
		return orb.Point{}, ErrMissingLocation
	}
	return point, nil
}

// optional returns the raw value for a system key, nil when absent or
// empty.
func optional(form url.Values, key string) interface{} {
	if value := form.Get(key); value != "" {
		return value
	}
	return nil
}
