package websocket

import "github.com/rs/zerolog/log"

// delivery is a frame addressed to every connection of one user.
type delivery struct {
	userID  int64
	message []byte
}

// Hub maintains the set of active clients and routes inbox frames to them.
// Its maps are only touched by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Frames addressed to a single user.
	deliveries chan delivery

	// A map of user IDs to the set of clients connected as that user.
	subscriptions map[int64]map[*Client]bool

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		deliveries:    make(chan delivery, 256),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[int64]map[*Client]bool),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int("total_clients", len(h.clients)).Int64("user_id", client.UserID).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Int64("user_id", client.UserID).Msg("Client disconnected")
			}
		case d := <-h.deliveries:
			for client := range h.subscriptions[d.userID] {
				select {
				case client.Send <- d.message:
				default:
					// Slow consumer; the client reconnects and reloads its inbox.
					h.drop(client)
				}
			}
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Join registers client. It reports false if the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client. It is safe to call more than once.
func (h *Hub) Leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishToUser queues a frame for every live connection of userID. Delivery
// is best effort: the frame is dropped if the queue is full.
func (h *Hub) PublishToUser(userID int64, message []byte) {
	select {
	case h.deliveries <- delivery{userID: userID, message: message}:
	default:
		log.Warn().Int64("user_id", userID).Msg("Hub delivery queue full, dropping frame")
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.removeSubscription(client)
	close(client.Send)
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs, ok := h.subscriptions[client.UserID]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.UserID)
	}
}
