package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const simulatorUser = "Simulador de lecturas"

// Client talks to the maintenance API on behalf of the simulator.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

// readingRequest mirrors the body accepted by POST /maintenance/{id}/readings.
type readingRequest struct {
	HorasKm            float64 `json:"horasKm"`
	UsuarioResponsable string  `json:"usuarioResponsable"`
	Observaciones      string  `json:"observaciones,omitempty"`
}

// completionRequest mirrors the body accepted by POST /maintenance/{id}/completions.
type completionRequest struct {
	HorasKm            float64 `json:"horasKm"`
	UsuarioResponsable string  `json:"usuarioResponsable"`
	Observaciones      string  `json:"observaciones"`
}

type maintenanceResponse struct {
	Maintenance models.ScheduledMaintenance `json:"mantenimiento"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password}, http.StatusOK, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.token = resp.Token
	return nil
}

// ScheduledMaintenance lists the plans the simulator will advance.
func (c *Client) ScheduledMaintenance(ctx context.Context) ([]models.ScheduledMaintenance, error) {
	var plans []models.ScheduledMaintenance
	if err := c.do(ctx, http.MethodGet, "/maintenance", nil, http.StatusOK, &plans); err != nil {
		return nil, fmt.Errorf("list maintenance: %w", err)
	}
	return plans, nil
}

// SendReading posts a new usage value and returns the updated plan.
func (c *Client) SendReading(ctx context.Context, id string, value float64) (*models.ScheduledMaintenance, error) {
	var resp maintenanceResponse
	body := readingRequest{HorasKm: value, UsuarioResponsable: simulatorUser, Observaciones: "Lectura simulada"}
	if err := c.do(ctx, http.MethodPost, "/maintenance/"+id+"/readings", body, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("send reading: %w", err)
	}
	return &resp.Maintenance, nil
}

// CompleteMaintenance registers the service at value and returns the rescheduled plan.
func (c *Client) CompleteMaintenance(ctx context.Context, id string, value float64) (*models.ScheduledMaintenance, error) {
	var resp maintenanceResponse
	body := completionRequest{HorasKm: value, UsuarioResponsable: simulatorUser, Observaciones: "Mantenimiento simulado"}
	if err := c.do(ctx, http.MethodPost, "/maintenance/"+id+"/completions", body, http.StatusCreated, &resp); err != nil {
		return nil, fmt.Errorf("complete maintenance: %w", err)
	}
	return &resp.Maintenance, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// nextReading advances a usage counter by a plausible amount for one shift.
func nextReading(current float64, unit models.Unit, rng *rand.Rand) float64 {
	if unit == models.UnitKilometers {
		return current + 50 + rng.Float64()*250
	}
	return current + 4 + rng.Float64()*6
}

// simulatePlan posts increasing readings for one plan until ctx is cancelled.
// When complete is set, an overdue plan is serviced at its current value.
func simulatePlan(ctx context.Context, c *Client, plan models.ScheduledMaintenance, interval time.Duration, complete bool, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	unit := maintenance.UnitFor(plan.MaintenanceType)
	current := plan.CurrentUsage
	entry := log.WithFields(log.Fields{"ficha": plan.Ficha, "tipo": plan.MaintenanceType})

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		value := nextReading(current, unit, rng)
		updated, err := c.SendReading(ctx, plan.ID.Hex(), value)
		if err != nil {
			entry.WithError(err).Warn("Reading rejected")
			continue
		}
		current = updated.CurrentUsage
		remaining := updated.Remaining
		entry.WithFields(log.Fields{
			"lectura":  current,
			"restante": maintenance.FormatRemainingLabel(&remaining, unit),
		}).Info("Sent reading")

		if complete && remaining <= 0 {
			serviced, err := c.CompleteMaintenance(ctx, plan.ID.Hex(), current)
			if err != nil {
				entry.WithError(err).Warn("Completion rejected")
				continue
			}
			entry.WithField("proximo", serviced.NextDue).Info("Maintenance completed")
		}
	}
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api/v1"
	}
	interval := time.Duration(getEnvInt("SIM_TICK_SECONDS", 5)) * time.Second
	maxPlans := getEnvInt("SIM_MAX_PLANS", 10)
	complete, _ := strconv.ParseBool(os.Getenv("SIM_COMPLETE"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := NewClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	if user := os.Getenv("SIM_USERNAME"); user != "" {
		if err := client.Login(ctx, user, os.Getenv("SIM_PASSWORD")); err != nil {
			log.WithError(err).Fatal("Simulator could not authenticate")
		}
	}

	plans, err := client.ScheduledMaintenance(ctx)
	if err != nil {
		log.WithError(err).Fatal("Simulator could not load maintenance plans")
	}
	if len(plans) > maxPlans {
		plans = plans[:maxPlans]
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"plans":    len(plans),
		"interval": interval,
		"complete": complete,
	}).Info("Starting reading simulation")
	if len(plans) == 0 {
		log.Warn("No active maintenance plans to simulate")
		return
	}

	var wg sync.WaitGroup
	for i, plan := range plans {
		if !plan.Active {
			continue
		}
		wg.Add(1)
		go func(p models.ScheduledMaintenance, seed int64) {
			defer wg.Done()
			simulatePlan(ctx, client, p, interval, complete, seed)
		}(plan, time.Now().UnixNano()+int64(i))
	}
	wg.Wait()
	log.Info("Reading simulation stopped")
}
