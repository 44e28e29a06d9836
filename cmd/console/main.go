// Command console is a terminal client for playing Data_Bleed stories
// against a running decision engine API.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}

	api := &apiClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.APIBaseURL,
	}

	if !testConnection(api) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	characters, err := api.listCharacters()
	if err != nil || len(characters) == 0 {
		fmt.Fprintf(os.Stderr, "Failed to list characters: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Available Characters:")
	for i, c := range characters {
		fmt.Printf("  %d - %s (%s)\n", i+1, c.Title, c.ScamDomain)
	}
	fmt.Print("\nSelect a character by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 1 || choice > len(characters) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}

	selected := characters[choice-1]

	p := tea.NewProgram(NewConsoleUI(api, selected),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func testConnection(api *apiClient) bool {
	resp, err := api.client.Get(api.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
