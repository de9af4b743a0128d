package main

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// joinURL is the link a second player scans to land in the room. Without
// --frontend-url the link points back at this server.
func joinURL(cfg *Config, r *http.Request, code string) string {
	base := strings.TrimSuffix(cfg.frontendURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host + cfg.prefix
	}

	return base + "/?room=" + url.QueryEscape(code)
}

// serveRoomQR renders a PNG QR code for a live room's join link.
func serveRoomQR(cfg *Config, g *Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		exists, err := g.RoomExists(ctx, code)
		if err != nil {
			http.Error(w, "server unavailable", http.StatusServiceUnavailable)
			return
		}
		if !exists {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(joinURL(cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		securityHeaders(cfg, w)
		corsHeaders(cfg, w, r)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}
