// Command insert_docs_load inserts random user documents into a running
// go-filedb server and reports throughput.
//
//	go run ./test_scripts -n 1000 -workers 8 -url http://localhost:8080
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// User represents the structure of a user document to insert
type User struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// generateRandomName generates a random 6-letter name
func generateRandomName() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	name := make([]byte, 6)
	for i := range name {
		name[i] = letters[rand.Intn(len(letters))]
	}
	// Capitalize first letter
	name[0] = name[0] - 32
	return string(name)
}

// generateRandomAge generates a random age between 18 and 99
func generateRandomAge() int {
	return rand.Intn(82) + 18
}

// insertUser sends a POST request to insert a user
func insertUser(client *http.Client, url string, user User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(userJSON))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func main() {
	numUsers := flag.Int("n", 1000, "Number of users to insert")
	workers := flag.Int("workers", 4, "Concurrent clients")
	serverURL := flag.String("url", "http://localhost:8080", "Server base URL")
	collection := flag.String("collection", "users", "Target collection")
	flag.Parse()

	if *numUsers <= 0 || *workers <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -n and -workers must be greater than 0")
		os.Exit(1)
	}

	url := strings.TrimRight(*serverURL, "/") + "/collections/" + *collection
	fmt.Printf("Starting load test: inserting %d users into %s with %d workers\n", *numUsers, url, *workers)

	client := &http.Client{Timeout: 30 * time.Second}
	startTime := time.Now()
	var successCount, errorCount, next atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for next.Add(1) <= int64(*numUsers) {
				name := generateRandomName()
				user := User{Name: name, Age: generateRandomAge(), Email: name + "@example.com"}
				if err := insertUser(client, url, user); err != nil {
					errorCount.Add(1)
					fmt.Printf("Error inserting user %s: %v\n", user.Name, err)
					continue
				}
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	totalTime := time.Since(startTime)
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("LOAD TEST COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total users attempted: %d\n", *numUsers)
	fmt.Printf("Successful inserts:    %d\n", successCount.Load())
	fmt.Printf("Failed inserts:        %d\n", errorCount.Load())
	fmt.Printf("Total time:            %v\n", totalTime)
	fmt.Printf("Average rate:          %.2f users/sec\n", float64(*numUsers)/totalTime.Seconds())

	if errorCount.Load() > 0 {
		os.Exit(1)
	}
}
