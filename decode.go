package infopulse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// maxExactCount is the largest count that survives the float64 round trip
// without losing integer precision.
const maxExactCount = 1 << 53

// DecodeInfo interprets an info endpoint response.
//
// DecodeInfo is a pure function: the same inputs always produce the same
// output. It fails with:
//   - [ErrStatus] if statusCode is not 2xx
//   - [ErrDecode] if body is not valid JSON
//   - [ErrShape] if the JSON is not an object with a non-negative numeric
//     "uptime" and a non-negative integer "count"
//
// Unknown fields are ignored.
//
// Example:
//
//	info, err := infopulse.DecodeInfo([]byte(`{"uptime": 12345, "count": 7}`), 200)
//	// info.UptimeSeconds() == 12.345, info.Count == 7
func DecodeInfo(body []byte, statusCode int) (ServerInfo, error) {
	if statusCode < 200 || statusCode > 299 {
		return ServerInfo{}, fmt.Errorf("%w: %d", ErrStatus, statusCode)
	}

	var raw struct {
		Uptime *float64 `json:"uptime"`
		Count  *float64 `json:"count"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ServerInfo{}, fmt.Errorf("%w: %w", ErrShape, err)
		}
		return ServerInfo{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	switch {
	case raw.Uptime == nil:
		return ServerInfo{}, fmt.Errorf("%w: missing field \"uptime\"", ErrShape)
	case raw.Count == nil:
		return ServerInfo{}, fmt.Errorf("%w: missing field \"count\"", ErrShape)
	case *raw.Uptime < 0:
		return ServerInfo{}, fmt.Errorf("%w: uptime must not be negative, got %v", ErrShape, *raw.Uptime)
	case *raw.Count < 0:
		return ServerInfo{}, fmt.Errorf("%w: count must not be negative, got %v", ErrShape, *raw.Count)
	case *raw.Count != math.Trunc(*raw.Count) || *raw.Count > maxExactCount:
		return ServerInfo{}, fmt.Errorf("%w: count must be an integer, got %v", ErrShape, *raw.Count)
	}

	return ServerInfo{
		UptimeMs: *raw.Uptime,
		Count:    int64(*raw.Count),
	}, nil
}

// decodeResult turns a raw response into a [Result].
func decodeResult(body []byte, statusCode int, transportErr error) Result {
	if transportErr != nil {
		return Failure(KindNetwork, transportErr)
	}
	info, err := DecodeInfo(body, statusCode)
	if err != nil {
		return Failure(KindOf(err), err)
	}
	return Success(info)
}
