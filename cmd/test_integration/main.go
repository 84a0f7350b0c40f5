package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	suffix := fmt.Sprintf("%d", time.Now().Unix())
	batch := map[string]interface{}{
		"nodes": []map[string]interface{}{
			{
				"type": "Person",
				"properties": map[string]interface{}{
					"name":  "Alice Martin " + suffix,
					"email": fmt.Sprintf("alice-%s@example.com", suffix),
				},
			},
			{
				"type": "Vehicle",
				"properties": map[string]interface{}{
					"name":  "Toyota Tacoma " + suffix,
					"brand": "Toyota",
					"model": "Tacoma",
				},
			},
		},
		"relationships": []map[string]interface{}{
			{
				"source": "Alice Martin " + suffix,
				"target": "Toyota Tacoma " + suffix,
				"type":   "OWNS",
			},
		},
	}

	// 1. Import the batch
	fmt.Println("1. Importing batch...")
	if !sendRequest("POST", "/import", batch) {
		fmt.Println("FAILED: Import batch")
		os.Exit(1)
	}
	fmt.Println("PASSED: Import batch")

	// 2. Re-import the same batch; everything should resolve to existing nodes
	fmt.Println("2. Re-importing batch (idempotence)...")
	if !sendRequest("POST", "/import", batch) {
		fmt.Println("FAILED: Re-import batch")
		os.Exit(1)
	}
	fmt.Println("PASSED: Re-import batch")

	// 3. List pending reviews
	fmt.Println("3. Listing pending reviews...")
	if !sendRequest("GET", "/reviews?status=pending", nil) {
		fmt.Println("FAILED: List reviews")
		os.Exit(1)
	}
	fmt.Println("PASSED: List reviews")
}

func sendRequest(method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
