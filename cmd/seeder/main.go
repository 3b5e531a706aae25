// Command seeder fills a running API with a demo account, a garage of
// vehicles with fuel and service history, and a forum post.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/models"
)

var catalog = map[models.FuelType][]struct{ Brand, Model string }{
	models.FuelGasoline: {{"Toyota", "Corolla"}, {"Honda", "Civic"}, {"Ford", "Focus"}, {"Volkswagen", "Golf"}},
	models.FuelDiesel:   {{"Fiat", "Egea"}, {"Renault", "Megane"}, {"Peugeot", "308"}},
	models.FuelHybrid:   {{"Toyota", "C-HR"}, {"Hyundai", "Ioniq"}},
	models.FuelElectric: {{"Tesla", "Model 3"}, {"Nissan", "Leaf"}},
	models.FuelLPG:      {{"Dacia", "Sandero"}},
}

var fuelTypes = []models.FuelType{
	models.FuelGasoline, models.FuelDiesel, models.FuelHybrid, models.FuelElectric, models.FuelLPG,
}

// litersPer100 is the typical consumption used to size simulated fills.
var litersPer100 = map[models.FuelType]float64{
	models.FuelGasoline: 7.0,
	models.FuelDiesel:   5.5,
	models.FuelHybrid:   4.5,
	models.FuelElectric: 16.0, // kWh
	models.FuelLPG:      9.0,
}

var pricePerLiter = map[models.FuelType]float64{
	models.FuelGasoline: 45,
	models.FuelDiesel:   46,
	models.FuelHybrid:   45,
	models.FuelElectric: 8,
	models.FuelLPG:      24,
}

// client talks to the API as one signed-in user.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

type statusError struct {
	Path   string
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.Status)
}

func (c *client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &statusError{Path: path, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// signIn registers the account, or logs in when it already exists.
func (c *client) signIn(ctx context.Context, username, email, password string) error {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, &resp)

	var se *statusError
	if errors.As(err, &se) && se.Status == http.StatusConflict {
		log.WithField("email", email).Info("Account exists, logging in")
		err = c.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &resp)
	}
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// randomVehicle picks a catalog car with plausible mileage and legal dates
// spread around now so the dashboard shows every badge colour.
func randomVehicle(rng *rand.Rand, now time.Time) models.VehicleDetails {
	ft := fuelTypes[rng.Intn(len(fuelTypes))]
	car := catalog[ft][rng.Intn(len(catalog[ft]))]
	mileage := 20000 + rng.Intn(150000)

	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}
	return models.VehicleDetails{
		Brand:                car.Brand,
		Model:                car.Model,
		Year:                 strconv.Itoa(2012 + rng.Intn(13)),
		Mileage:              strconv.Itoa(mileage),
		PlateNumber:          fmt.Sprintf("34 %c%c %03d", 'A'+rng.Intn(26), 'A'+rng.Intn(26), rng.Intn(1000)),
		FuelType:             ft,
		Transmission:         []models.Transmission{models.TransmissionManual, models.TransmissionAutomatic}[rng.Intn(2)],
		InsuranceDate:        day(rng.Intn(400) - 30),
		TrafficInsuranceDate: day(rng.Intn(400) - 30),
		InspectionDate:       day(rng.Intn(700) - 30),
		LastOilChange:        models.ServiceSnapshot{Date: day(-rng.Intn(300)), Mileage: strconv.Itoa(mileage - rng.Intn(9000))},
	}
}

// fuelFills drives the vehicle forward from startMileage and returns n
// full-tank fills, oldest first.
func fuelFills(rng *rand.Rand, ft models.FuelType, startMileage, n int, now time.Time) []models.FuelRecord {
	fills := make([]models.FuelRecord, 0, n)
	mileage := startMileage
	for i := 0; i < n; i++ {
		km := 350 + rng.Intn(400)
		mileage += km
		// +-15% around the typical consumption.
		per100 := litersPer100[ft] * (0.85 + rng.Float64()*0.3)
		liters := float64(km) * per100 / 100
		liters = float64(int(liters*100)) / 100
		fills = append(fills, models.FuelRecord{
			Date:     now.AddDate(0, 0, -7*(n-i)).Format("2006-01-02"),
			Mileage:  strconv.Itoa(mileage),
			Liters:   liters,
			Cost:     float64(int(liters*pricePerLiter[ft]*100)) / 100,
			FuelType: ft,
			FullTank: true,
		})
	}
	return fills
}

type seedConfig struct {
	APIURL   string
	Username string
	Email    string
	Password string
	Vehicles int
	Fills    int
}

func seed(ctx context.Context, cfg seedConfig, rng *rand.Rand, now time.Time) (int, error) {
	c := newClient(cfg.APIURL)
	if err := c.signIn(ctx, cfg.Username, cfg.Email, cfg.Password); err != nil {
		return 0, fmt.Errorf("sign in: %w", err)
	}

	created := 0
	for i := 0; i < cfg.Vehicles; i++ {
		details := randomVehicle(rng, now)
		var rec models.VehicleRecord
		if err := c.do(ctx, http.MethodPost, "/vehicles", details, &rec); err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		created++
		id := rec.ID.Hex()

		start, _ := strconv.Atoi(details.Mileage)
		for _, f := range fuelFills(rng, details.FuelType, start, cfg.Fills, now) {
			if err := c.do(ctx, http.MethodPost, "/vehicles/"+id+"/fuel", f, nil); err != nil {
				log.WithError(err).WithField("vehicle_id", id).Warn("Failed to add fuel record")
			}
		}

		service := models.MaintenanceRecord{
			Date:        details.LastOilChange.Date,
			Mileage:     details.LastOilChange.Mileage,
			Type:        "oil_change",
			Description: "Engine oil and filter",
			Cost:        2500,
			NextDueDate: now.AddDate(0, 0, rng.Intn(120)-20).Format("2006-01-02"),
			PerformedBy: "Demo Service",
		}
		if err := c.do(ctx, http.MethodPost, "/vehicles/"+id+"/maintenance", service, nil); err != nil {
			log.WithError(err).WithField("vehicle_id", id).Warn("Failed to add maintenance record")
		}

		log.WithFields(log.Fields{
			"vehicle_id": id,
			"brand":      details.Brand,
			"model":      details.Model,
			"fuel_type":  details.FuelType,
		}).Info("Created vehicle")
	}

	post := models.PostDraft{
		Title:   "Welcome to the EngineEye garage",
		Content: "Share fuel numbers, service tips and questions about your car here.",
	}
	if err := c.do(ctx, http.MethodPost, "/forum/posts", post, nil); err != nil {
		log.WithError(err).Warn("Failed to create forum post")
	}
	return created, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	cfg := seedConfig{
		APIURL:   getEnv("API_BASE_URL", "http://localhost:8080/api"),
		Username: getEnv("SEED_USERNAME", "demo"),
		Email:    getEnv("SEED_EMAIL", "demo@engineeye.app"),
		Password: getEnv("SEED_PASSWORD", "demo1234"),
		Vehicles: getInt("SEED_VEHICLES", 3),
		Fills:    getInt("SEED_FUEL_FILLS", 6),
	}

	log.WithFields(log.Fields{
		"api_url":  cfg.APIURL,
		"email":    cfg.Email,
		"vehicles": cfg.Vehicles,
	}).Info("Seeding demo data")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created, err := seed(ctx, cfg, rng, time.Now())
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	log.WithField("created_vehicles", created).Info("Seeding completed")
}
