package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(req *http.Request) bool {
		return true
	},
}

type event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

const wsTimeout = 10 * time.Second

// WsInterval is how often stats are pushed to websocket clients.
var WsInterval = 2 * time.Second

// @Summary	Open websocket for realtime status information
// @Router		/api/ws [get]
// @Param		Upgrade	header	string	true	"websocket"
// @Tags		base
// @Success	101
func (a *Api) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("couldn't make websocket: %s\n", err)
		return
	}
	writeMu := &sync.Mutex{}

	a.wsMu.Lock()
	a.wsClients[ws] = writeMu
	a.Stats.SetWsClients(len(a.wsClients))
	a.wsMu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		a.wsMu.Lock()
		delete(a.wsClients, ws)
		a.Stats.SetWsClients(len(a.wsClients))
		a.wsMu.Unlock()
		if err := ws.Close(); err != nil {
			log.Printf("could not close websocket: %s\n", err.Error())
		}
	}()

	go a.websocketWriter(ws, writeMu, done)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}
		fmt.Printf("Received: %s\n", msg)
	}
}

func (a *Api) websocketWriter(ws *websocket.Conn, mu *sync.Mutex, done <-chan struct{}) {
	a.Stats.Update()
	if err := writeEvent(ws, mu, event{Event: "status", Data: a.sink.Status()}); err != nil {
		return
	}

	ticker := time.NewTicker(WsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		a.Stats.Update()
		if err := writeEvent(ws, mu, event{Event: "stats", Data: a.Stats.Snapshot()}); err != nil {
			return
		}
	}
}

func (a *Api) broadcast(ev event) {
	a.wsMu.Lock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(a.wsClients))
	for ws, mu := range a.wsClients {
		clients[ws] = mu
	}
	a.wsMu.Unlock()

	for ws, mu := range clients {
		if err := writeEvent(ws, mu, ev); err != nil {
			log.Printf("could not send %s event: %s\n", ev.Event, err)
		}
	}
}

func writeEvent(ws *websocket.Conn, mu *sync.Mutex, ev event) error {
	packet, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if err := ws.SetWriteDeadline(time.Now().Add(wsTimeout)); err != nil {
		return fmt.Errorf("could not set write deadline: %w", err)
	}
	return ws.WriteMessage(websocket.TextMessage, packet)
}
