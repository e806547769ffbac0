// Command seed populates a running API instance with sample readings for
// every sensor type and verifies the combined statistics afterwards.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

type reading struct {
	Timestamp  time.Time `json:"timestamp"`
	RawValue   float64   `json:"raw_value"`
	Percentage float64   `json:"percentage"`
}

func generateReadings(sensorType string, count int, from time.Time) []reading {
	readings := make([]reading, count)
	for i := range readings {
		var raw float64
		switch sensorType {
		case "temperature":
			raw = rand.Float64()*50 + 10 // 10-60 C
		case "humidity":
			raw = rand.Float64() * 100
		case "pressure":
			raw = rand.Float64()*200 + 900 // 900-1100 hPa
		case "light":
			raw = rand.Float64() * 4095 // ADC range
		case "sound":
			raw = rand.Float64()*80 + 20 // 20-100 dB
		}

		readings[i] = reading{
			Timestamp:  from.Add(time.Duration(i) * time.Minute),
			RawValue:   raw,
			Percentage: rand.Float64() * 100,
		}
	}
	return readings
}

func post(client *http.Client, url string, r reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func waitForService(client *http.Client, baseURL string) bool {
	for i := 0; i < 30; i++ {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		fmt.Printf("Waiting for service... (%d/30)\n", i+1)
		time.Sleep(2 * time.Second)
	}
	return false
}

func verifyStats(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/api/sensors/stats")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats endpoint returned HTTP %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Total         int64   `json:"total"`
			AvgRawValue   float64 `json:"avgRawValue"`
			AvgPercentage float64 `json:"avgPercentage"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	fmt.Printf("Combined stats: total=%d avgRawValue=%.2f avgPercentage=%.2f\n",
		result.Data.Total, result.Data.AvgRawValue, result.Data.AvgPercentage)
	return nil
}

func main() {
	baseURL := getEnv("TARGET_URL", "http://localhost:3000")
	perType := getEnvInt("READINGS_PER_TYPE", 20)
	sensorTypes := []string{"sound", "light", "temperature", "humidity", "pressure"}

	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Printf("Seeding %s with %d readings per sensor type\n", baseURL, perType)
	if !waitForService(client, baseURL) {
		log.Fatal("Service did not become ready")
	}

	from := time.Now().Add(-time.Duration(perType) * time.Minute)
	inserted := 0
	for _, t := range sensorTypes {
		url := baseURL + "/api/sensors/" + t
		for _, r := range generateReadings(t, perType, from) {
			if err := post(client, url, r); err != nil {
				log.Fatalf("Failed to insert %s reading: %v", t, err)
			}
			inserted++
		}
		fmt.Printf("Inserted %d %s readings\n", perType, t)
	}

	fmt.Printf("Seeded %d readings total\n", inserted)
	if err := verifyStats(client, baseURL); err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	fmt.Println("Seeding completed!")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
