package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/mileusna/useragent"
)

// DeviceType classifies the client screen.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"

	deviceKey contextKey = "device"
)

// Viewport breakpoints in CSS pixels.
const (
	breakpointSmall = 640
	breakpointLarge = 1024
)

// DetectDevice classifies a request. A Viewport-Width client hint wins over
// the User-Agent when present.
func DetectDevice(r *http.Request) DeviceType {
	for _, header := range []string{"Sec-CH-Viewport-Width", "Viewport-Width"} {
		if width, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(header))); err == nil && width > 0 {
			return deviceForWidth(width)
		}
	}
	if r.Header.Get("Sec-CH-UA-Mobile") == "?1" {
		return DeviceMobile
	}
	return deviceForUserAgent(r.UserAgent())
}

func deviceForWidth(width int) DeviceType {
	switch {
	case width < breakpointSmall:
		return DeviceMobile
	case width < breakpointLarge:
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

func deviceForUserAgent(s string) DeviceType {
	ua := useragent.Parse(s)
	switch {
	case ua.Tablet:
		return DeviceTablet
	case ua.Mobile:
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// Device stores the detected DeviceType on the request context.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), deviceKey, DetectDevice(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice returns the device stored by Device, defaulting to desktop.
func GetDevice(ctx context.Context) DeviceType {
	if d, ok := ctx.Value(deviceKey).(DeviceType); ok {
		return d
	}
	return DeviceDesktop
}
