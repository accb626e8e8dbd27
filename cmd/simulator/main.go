package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Simulates a group of pilgrims walking towards Palani: registers them over
// the REST API, starts their journeys, then reports positions over the
// device websocket at a walking pace.

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Waypoints along the Dindigul road into Palani.
var route = []Location{
	{Lat: 10.3673, Lng: 77.9803}, // Dindigul
	{Lat: 10.4152, Lng: 77.8670},
	{Lat: 10.4897, Lng: 77.7527}, // Oddanchatram
	{Lat: 10.4755, Lng: 77.6440},
	{Lat: 10.4500, Lng: 77.5161}, // Palani
}

type pilgrimState struct {
	UserID    string
	Name      string
	Position  Location
	SpeedKmh  float64
	SegIndex  int
	SegOffset float64 // km along current segment
}

func haversineKm(a, b Location) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

func lerp(a, b Location, t float64) Location {
	return Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lng: a.Lng + (b.Lng-a.Lng)*t}
}

func jitterLocation(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lngMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLng := (rand.Float64()*2 - 1) * (meters / lngMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lng: base.Lng + dLng}
}

func stepAlongRoute(s *pilgrimState, tickSec float64) {
	remKm := s.SpeedKmh * (tickSec / 3600.0)
	for remKm > 0 && s.SegIndex < len(route)-1 {
		a := route[s.SegIndex]
		b := route[s.SegIndex+1]
		segLen := haversineKm(a, b)
		leftOnSeg := segLen - s.SegOffset
		if remKm >= leftOnSeg {
			s.Position = b
			s.SegIndex++
			s.SegOffset = 0
			remKm -= leftOnSeg
			continue
		}
		t := (s.SegOffset + remKm) / segLen
		s.Position = lerp(a, b, t)
		s.SegOffset += remKm
		remKm = 0
	}
}

func apiPost(apiURL, path string, payload interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(apiURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func createPilgrim(apiURL string, index int) (string, error) {
	name := fmt.Sprintf("Pilgrim %d", index+1)
	body, err := apiPost(apiURL, "/api/v1/users", map[string]interface{}{
		"name":     name,
		"email":    fmt.Sprintf("pilgrim%d@sim.local", index+1),
		"group_id": "sim-group",
	})
	if err != nil {
		return "", err
	}

	data, ok := body["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}
	userID, ok := data["id"].(string)
	if !ok {
		return "", fmt.Errorf("no user ID in response")
	}

	if _, err := apiPost(apiURL, "/api/v1/journeys/"+userID+"/start", map[string]interface{}{}); err != nil {
		return "", fmt.Errorf("failed to start journey: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "name": name}).Info("Registered pilgrim")
	return userID, nil
}

func simulatePilgrim(wsURL string, s *pilgrimState, interval time.Duration) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user_id="+s.UserID+"&role=device", nil)
	if err != nil {
		log.WithError(err).WithField("user_id", s.UserID).Error("WebSocket dial failed")
		return
	}
	defer conn.Close()

	// Drain server messages so pings keep flowing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for range tick.C {
		// Walking pace with a little noise.
		s.SpeedKmh += (rand.Float64()*2 - 1) * 0.5
		if s.SpeedKmh < 3 {
			s.SpeedKmh = 3
		}
		if s.SpeedKmh > 6 {
			s.SpeedKmh = 6
		}

		stepAlongRoute(s, interval.Seconds())
		pos := jitterLocation(s.Position, 3)

		msg := map[string]interface{}{
			"type": "position_update",
			"data": map[string]interface{}{
				"latitude":  pos.Lat,
				"longitude": pos.Lng,
				"timestamp": time.Now().UnixMilli(),
			},
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).WithField("user_id", s.UserID).Error("Failed to send position")
			return
		}

		log.WithFields(log.Fields{
			"user_id": s.UserID,
			"lat":     pos.Lat,
			"lng":     pos.Lng,
		}).Debug("Sent position")
	}
}

func main() {
	groupSize := 5
	if v := os.Getenv("SIM_GROUP_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			groupSize = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	wsURL := os.Getenv("WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:8080/ws"
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"group_size": groupSize,
		"api_url":    apiURL,
		"interval":   interval,
	}).Info("Starting padayatra simulation")

	states := make([]*pilgrimState, 0, groupSize)
	for i := 0; i < groupSize; i++ {
		userID, err := createPilgrim(apiURL, i)
		if err != nil {
			log.WithError(err).Error("Failed to register pilgrim")
			continue
		}

		// Spread the group out along the first stretch.
		start := jitterLocation(route[0], 200)
		states = append(states, &pilgrimState{
			UserID:   userID,
			Position: start,
			SpeedKmh: 4 + rand.Float64(),
		})
	}

	if len(states) == 0 {
		log.Error("No pilgrims registered. Is the server running?")
		return
	}

	for _, s := range states {
		go simulatePilgrim(wsURL, s, interval)
	}

	log.Info("Simulation started")
	select {}
}
