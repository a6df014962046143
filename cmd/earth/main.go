package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"ereea.space/internal/observerproto"
)

func main() {
	var (
		url     = flag.String("url", "ws://127.0.0.1:8080/v1/observer", "observer ws url")
		robotID = flag.Uint64("robot", 0, "show only what this robot knows (0 = station view)")
		noClear = flag.Bool("no_clear", false, "append frames instead of redrawing")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[earth] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	kurl, err := knowledgeURL(*url, *robotID)
	if err != nil {
		logger.Fatalf("knowledge url: %v", err)
	}
	cl := &http.Client{Timeout: 2 * time.Second}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var st observerproto.StateMsg
		if err := json.Unmarshal(msg, &st); err != nil || st.Type != observerproto.TypeState {
			continue
		}

		mask := st.Exploration.ExploredTiles
		if *robotID != 0 {
			m, err := fetchKnowledge(cl, kurl)
			if err != nil {
				logger.Printf("robot %d knowledge: %v", *robotID, err)
			}
			mask = m
		}
		if !*noClear {
			fmt.Print("\x1b[H\x1b[2J")
		}
		fmt.Print(frame(&st, mask, *robotID))
		if st.Mission == "Terminated" {
			return
		}
	}
}

func fetchKnowledge(cl *http.Client, u string) ([][]bool, error) {
	resp, err := cl.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", resp.Status)
	}
	var mask [][]bool
	if err := json.NewDecoder(resp.Body).Decode(&mask); err != nil {
		return nil, err
	}
	return mask, nil
}
