package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 50 // Start small; each pair is two users and two sockets.
	MsgCount  = 20 // Messages per user
)

type AuthResponse struct {
	Token string `json:"access_token"`
	ID    string `json:"id"`
}

func main() {
	log.Printf("starting load test: %d users, %d messages each", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	// Pairs: user_0_a talks to user_0_b, and so on.
	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("load test complete")
}

func runPair(pairID int) {
	a := authenticate(fmt.Sprintf("u_%d_a@loadtest.local", pairID))
	b := authenticate(fmt.Sprintf("u_%d_b@loadtest.local", pairID))
	if a == nil || b == nil {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go spamChat(&wsWg, a, b.ID)
	go spamChat(&wsWg, b, a.ID)
	wsWg.Wait()
}

// authenticate signs up (ignoring the error when the user already exists) and
// signs in.
func authenticate(email string) *AuthResponse {
	pass := "password123"
	postJSON("/api/auth/signup", map[string]string{
		"email": email, "fullName": "Load Tester", "password": pass,
	})

	resp, err := postJSON("/api/auth/signin", map[string]string{
		"email": email, "password": pass,
	})
	if err != nil {
		log.Printf("signin failed [%s]: %v", email, err)
		return nil
	}
	defer resp.Body.Close()

	var data AuthResponse
	json.NewDecoder(resp.Body).Decode(&data)
	if data.Token == "" {
		log.Printf("signin returned no token [%s]", email)
		return nil
	}
	return &data
}

// spamChat opens the live channel, then alternates HTTP sends (the durable
// path) with typing frames (the live path).
func spamChat(wg *sync.WaitGroup, me *AuthResponse, peerID string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, me.Token), nil)
	if err != nil {
		log.Printf("ws connect failed [%s]: %v", me.ID, err)
		return
	}
	defer conn.Close()

	// Drain pushes so the server never sees us as a slow consumer.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		conn.WriteJSON(map[string]string{"kind": "typing", "recipientId": peerID})

		body, _ := json.Marshal(map[string]string{
			"text": fmt.Sprintf("load test message %d", i),
		})
		req, _ := http.NewRequest("POST", fmt.Sprintf("%s/api/messages/%s", BaseURL, peerID), bytes.NewBuffer(body))
		req.Header.Set("Authorization", "Bearer "+me.Token)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("send failed [%s]: %v", me.ID, err)
			break
		}
		resp.Body.Close()

		// Simulate a real network instead of hammering localhost.
		time.Sleep(10 * time.Millisecond)
	}
}

func postJSON(endpoint string, data interface{}) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(jsonData))
}
