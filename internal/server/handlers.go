// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wneessen/revgeo/internal/geocode"
)

// ReverseRequest is the request body of the single reverse geocoding endpoint.
// Coordinates are pointers so that a missing field can be told apart from a
// legitimate zero coordinate.
type ReverseRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Language  string   `json:"language"`
}

// BatchReverseRequest is the request body of the batch reverse geocoding endpoint
type BatchReverseRequest struct {
	Locations []BatchLocation `json:"locations"`
	Language  string          `json:"language"`
}

// BatchLocation is a single coordinate entry of a batch request
type BatchLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LocationResponse is the uniform envelope returned for a reverse geocoding
// request
type LocationResponse struct {
	Success     bool          `json:"success"`
	Data        *LocationData `json:"data,omitempty"`
	Error       *ErrorBody    `json:"error,omitempty"`
	Coordinates *Coordinates  `json:"coordinates,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	RequestID   string        `json:"requestId,omitempty"`
}

// BatchLocationResponse aggregates the per-item envelopes of a batch request
type BatchLocationResponse struct {
	Success            bool               `json:"success"`
	TotalRequests      int                `json:"total_requests"`
	SuccessfulRequests int                `json:"successful_requests"`
	Results            []LocationResponse `json:"results"`
	Timestamp          time.Time          `json:"timestamp"`
	RequestID          string             `json:"requestId,omitempty"`
}

// LocationData carries the resolved address and its resolution metadata
type LocationData struct {
	Address  AddressBody `json:"address"`
	Metadata Metadata    `json:"metadata"`
}

// AddressBody is the wire representation of a normalized address
type AddressBody struct {
	FullAddress      string              `json:"fullAddress"`
	FormattedAddress string              `json:"formattedAddress"`
	ShortAddress     string              `json:"shortAddress"`
	Components       geocode.Components  `json:"components"`
	Coordinates      ResolvedCoordinates `json:"coordinates"`
	PlaceType        geocode.PlaceType   `json:"placeType"`
	Confidence       float64             `json:"confidence"`
}

// ResolvedCoordinates echo the request coordinates with the accuracy of the
// resolution
type ResolvedCoordinates struct {
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Accuracy  geocode.Accuracy `json:"accuracy"`
}

// Coordinates is a plain latitude/longitude pair used in failure envelopes
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Metadata describes how a result was resolved
type Metadata struct {
	Source         string    `json:"source"`
	ProcessingTime string    `json:"processingTime"`
	Cached         bool      `json:"cached"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// ErrorBody is the error part of a failure envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the response of the health endpoint
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// root reports the service name, version and status
func (s *Server) root(ctx *gin.Context) {
	respond(ctx, http.StatusOK, gin.H{
		"service": ServiceName,
		"version": s.version,
		"status":  "running",
	})
}

// reverse resolves a single coordinate to an address
func (s *Server) reverse(ctx *gin.Context) {
	var request ReverseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respond(ctx, http.StatusBadRequest, failureEnvelope(geocode.CodeValidationError,
			"invalid request body", nil, requestID(ctx)))
		return
	}
	if request.Latitude == nil || request.Longitude == nil {
		respond(ctx, http.StatusBadRequest, failureEnvelope(geocode.CodeValidationError,
			"latitude and longitude are required", nil, requestID(ctx)))
		return
	}
	lang := request.Language
	if lang == "" {
		lang = s.defaultLang
	}

	coords := geocode.Coordinate{Lat: *request.Latitude, Lon: *request.Longitude}
	result := s.resolver.Geocode(ctx.Request.Context(), coords, lang)
	envelope := resultEnvelope(result, coords, requestID(ctx))

	// Validation failures are client errors, an exhausted provider chain is not
	status := http.StatusOK
	if !result.Success && (result.Code == geocode.CodeInvalidCoordinates ||
		result.Code == geocode.CodeInvalidLanguage) {
		status = http.StatusBadRequest
	}
	respond(ctx, status, envelope)
}

// reverseBatch resolves a list of coordinates, isolating per-item failures
func (s *Server) reverseBatch(ctx *gin.Context) {
	var request BatchReverseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respond(ctx, http.StatusBadRequest, failureEnvelope(geocode.CodeValidationError,
			"invalid request body", nil, requestID(ctx)))
		return
	}
	lang := request.Language
	if lang == "" {
		lang = s.defaultLang
	}

	coords := make([]geocode.Coordinate, 0, len(request.Locations))
	for _, location := range request.Locations {
		// Missing fields map to NaN so that the item fails coordinate validation
		// instead of being geocoded as a defaulted zero coordinate
		coord := geocode.Coordinate{Lat: math.NaN(), Lon: math.NaN()}
		if location.Latitude != nil {
			coord.Lat = *location.Latitude
		}
		if location.Longitude != nil {
			coord.Lon = *location.Longitude
		}
		coords = append(coords, coord)
	}

	batch, err := s.resolver.GeocodeBatch(ctx.Request.Context(), coords, lang)
	if err != nil {
		var verr *geocode.ValidationError
		code, message := geocode.CodeValidationError, "invalid batch request"
		if errors.As(err, &verr) {
			code, message = verr.Code, verr.Message
		}
		respond(ctx, http.StatusBadRequest, failureEnvelope(code, message, nil, requestID(ctx)))
		return
	}

	results := make([]LocationResponse, len(batch.Results))
	for i, result := range batch.Results {
		results[i] = resultEnvelope(result, coords[i], "")
	}
	respond(ctx, http.StatusOK, BatchLocationResponse{
		Success:            true,
		TotalRequests:      batch.Total,
		SuccessfulRequests: batch.Successful,
		Results:            results,
		Timestamp:          time.Now().UTC(),
		RequestID:          requestID(ctx),
	})
}

// health reports the state of the cache backend and the provider chain
func (s *Server) health(ctx *gin.Context) {
	healthState := s.resolver.HealthCheck(ctx.Request.Context())
	status := "healthy"
	if !healthState.Healthy() {
		status = "unhealthy"
	}
	respond(ctx, http.StatusOK, HealthResponse{
		Status: status,
		Services: map[string]string{
			"cache":     healthState.Cache,
			"providers": healthState.Providers,
		},
	})
}

// resultEnvelope converts a resolver result into the wire envelope
func resultEnvelope(result geocode.Result, coords geocode.Coordinate, reqID string) LocationResponse {
	if !result.Success || result.Address == nil {
		// NaN is not representable in JSON, incomplete coordinates are not echoed
		var echo *Coordinates
		if !math.IsNaN(coords.Lat) && !math.IsNaN(coords.Lon) {
			echo = &Coordinates{Latitude: coords.Lat, Longitude: coords.Lon}
		}
		return failureEnvelope(result.Code, result.Message, echo, reqID)
	}

	address := result.Address
	return LocationResponse{
		Success: true,
		Data: &LocationData{
			Address: AddressBody{
				FullAddress:      address.FullAddress,
				FormattedAddress: address.FormattedAddress,
				ShortAddress:     address.ShortAddress,
				Components:       address.Components,
				Coordinates: ResolvedCoordinates{
					Latitude:  address.Latitude,
					Longitude: address.Longitude,
					Accuracy:  address.Accuracy,
				},
				PlaceType:  address.PlaceType,
				Confidence: address.Confidence,
			},
			Metadata: Metadata{
				Source:         result.Source,
				ProcessingTime: result.ProcessingTime,
				Cached:         result.Cached,
				LastUpdated:    time.Now().UTC(),
			},
		},
		Timestamp: time.Now().UTC(),
		RequestID: reqID,
	}
}

func failureEnvelope(code, message string, coords *Coordinates, reqID string) LocationResponse {
	return LocationResponse{
		Error:       &ErrorBody{Code: code, Message: message},
		Coordinates: coords,
		Timestamp:   time.Now().UTC(),
		RequestID:   reqID,
	}
}
