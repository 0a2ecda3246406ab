package server

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
)

const (
	realtimeEventHeartbeat = "heartbeat"
	realtimeSourceBackend  = "pulse-backend"
)

// RealtimeMessage is a ranking event addressed to the subscribers of one country and year.
type RealtimeMessage struct {
	Country   string
	Year      int
	EventType string
	Timestamp time.Time
}

type realtimePayload struct {
	Type      string `json:"type"`
	Country   string `json:"country"`
	Year      int    `json:"year"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// RealtimeDispatcher fans ranking events out to SSE subscribers. Slow
// subscribers drop messages instead of blocking publishers.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[string]map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

func realtimeTopic(country string, year int) string {
	return country + "/" + strconv.Itoa(year)
}

// Subscribe registers a stream for the country and year until ctx ends or
// the returned cleanup runs. country must already be normalized.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, country string, year int) (<-chan RealtimeMessage, func()) {
	if country == "" || year == 0 {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	topic := realtimeTopic(country, year)
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(topic, subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(topic, subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.Country == "" || message.EventType == "" {
		return
	}
	topic := realtimeTopic(message.Country, message.Year)
	d.mu.RLock()
	subscribers := d.subscribers[topic]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

// PublishEvent forwards ranking service events to subscribers.
func (d *RealtimeDispatcher) PublishEvent(event ranking.Event) {
	d.Publish(RealtimeMessage{
		Country:   event.Country,
		Year:      event.Year,
		EventType: event.Type,
		Timestamp: event.At,
	})
}

func (d *RealtimeDispatcher) subscriberCount(country string, year int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[realtimeTopic(country, year)])
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(topic string, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[topic]; !ok {
		d.subscribers[topic] = make(map[int64]*realtimeSubscriber)
	}
	d.subscribers[topic][subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(topic string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[topic]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, topic)
		}
	}
	d.mu.Unlock()
}
