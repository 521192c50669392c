package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestNextReading(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		h := nextReading(1000, models.UnitHours, rng)
		assert.GreaterOrEqual(t, h, 1004.0)
		assert.Less(t, h, 1010.0)

		km := nextReading(50000, models.UnitKilometers, rng)
		assert.GreaterOrEqual(t, km, 50050.0)
		assert.Less(t, km, 50300.0)
	}
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var req models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "password123" {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(models.LoginResponse{Token: "tok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.Login(context.Background(), "sim", "password123"))
	assert.Equal(t, "tok", c.token)

	err := NewClient(srv.URL, "").Login(context.Background(), "sim", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_ScheduledMaintenanceSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]models.ScheduledMaintenance{{Ficha: "AC-101"}})
	}))
	defer srv.Close()

	plans, err := NewClient(srv.URL, "tok").ScheduledMaintenance(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "AC-101", plans[0].Ficha)
}

func TestSimulatePlan_CompletesOverduePlans(t *testing.T) {
	id := primitive.NewObjectID()
	var (
		mu          sync.Mutex
		readings    []float64
		completions int
	)
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/maintenance/" + id.Hex() + "/readings":
			var req readingRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, simulatorUser, req.UsuarioResponsable)
			readings = append(readings, req.HorasKm)
			_ = json.NewEncoder(w).Encode(maintenanceResponse{Maintenance: models.ScheduledMaintenance{
				CurrentUsage: req.HorasKm,
				Remaining:    1000 - req.HorasKm,
			}})
		case "/maintenance/" + id.Hex() + "/completions":
			completions++
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(maintenanceResponse{Maintenance: models.ScheduledMaintenance{NextDue: 1250}})
			if completions == 1 {
				close(done)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	plan := models.ScheduledMaintenance{ID: id, Ficha: "AC-101", MaintenanceType: "PM1 250 horas", CurrentUsage: 995, Active: true}
	go simulatePlan(ctx, NewClient(srv.URL, ""), plan, 10*time.Millisecond, true, 7)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("plan was never completed")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, readings)
	for i := 1; i < len(readings); i++ {
		assert.Greater(t, readings[i], readings[i-1])
	}
	assert.Greater(t, readings[0], 995.0)
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SIM_TEST_INT", "12")
	assert.Equal(t, 12, getEnvInt("SIM_TEST_INT", 3))
	t.Setenv("SIM_TEST_INT", "-1")
	assert.Equal(t, 3, getEnvInt("SIM_TEST_INT", 3))
	t.Setenv("SIM_TEST_INT", "x")
	assert.Equal(t, 3, getEnvInt("SIM_TEST_INT", 3))
}
