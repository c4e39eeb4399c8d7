package livesocket

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

type event struct {
	name  string
	value interface{}
}

type eventQueue struct {
	mu     sync.Mutex
	out    chan *event
	data   []*event
	closed bool
}

func newEventQueue() *eventQueue {
	return &eventQueue{out: make(chan *event, 1)}
}

func (e *eventQueue) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if len(e.data) == 0 {
		close(e.out)
	}
}

// push adds an item to the queue
func (e *eventQueue) push(item *event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if len(e.data) == 0 {
		select {
		case e.out <- item:
			return
		default:
		}
	}
	e.data = append(e.data, item)
	e.shift()
}

// shift moves the next available item from the queue into the out channel.
// The out channel is closed once the queue is closed and drained. must be
// locked by the caller
func (e *eventQueue) shift() {
	if len(e.data) > 0 {
		select {
		case e.out <- e.data[0]:
			e.data = e.data[1:]
		default:
		}
	}
	if e.closed && len(e.data) == 0 {
		close(e.out)
		e.data = nil
	}
}

// pop returns the element and the status of the queue (closed or not)
func (e *eventQueue) pop() (*event, bool) {
	item, ok := <-e.out
	if ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.closed || len(e.data) > 0 {
			e.shift()
		}
		return item, false
	}

	return nil, true
}

// EventEmitter listens to a named event and triggers a callback when that event occurs
// The events are emitted in the order they occur, from a single goroutine
type EventEmitter interface {
	On(eventName string, callback interface{}) (int, error)
	Off(eventName string, id int) error
}

type listener struct {
	id       int
	callback interface{}
}

type eventEmitter struct {
	eventq    *eventQueue
	wg        sync.WaitGroup
	mu        sync.Mutex
	nextID    int
	listeners map[string][]listener
}

func newEventEmitter() *eventEmitter {
	return &eventEmitter{
		eventq:    newEventQueue(),
		listeners: make(map[string][]listener),
	}
}

func (e *eventEmitter) close() {
	e.eventq.close()
	e.wg.Wait()
}

func (e *eventEmitter) on(eventName string, callback interface{}) (int, error) {
	if err := checkCallback(eventName, callback); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.listeners[eventName] = append(e.listeners[eventName], listener{id: e.nextID, callback: callback})
	return e.nextID, nil
}

func (e *eventEmitter) off(eventName string, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	listeners := e.listeners[eventName]
	for i, l := range listeners {
		if l.id == id {
			e.listeners[eventName] = append(listeners[:i:i], listeners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no %q listener with id %d", eventName, id)
}

func (e *eventEmitter) emit(eventName string, value interface{}) {
	e.eventq.push(&event{name: eventName, value: value})
}

func (e *eventEmitter) snapshot(eventName string) []listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]listener(nil), e.listeners[eventName]...)
}

func (e *eventEmitter) run() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			item, closed := e.eventq.pop()
			if closed {
				// queue is closed
				return
			}

			for _, l := range e.snapshot(item.name) {
				switch item.name {
				case StatusEvent:
					l.callback.(StatusEventFn)(item.value.(ConnectionState))
				case MessageEvent:
					l.callback.(MessageEventFn)(item.value.(*Message))
				case ErrorEvent:
					l.callback.(ErrorEventFn)(item.value.(error))
				case ReconnectingEvent:
					l.callback.(ReconnectingEventFn)(item.value.(ReconnectInfo))
				default:
					log.Errorf("Received invalid event, name: %s", item.name)
				}
			}
		}
	}()
}

func checkCallback(eventName string, callback interface{}) error {
	var ok bool
	switch eventName {
	case StatusEvent:
		_, ok = callback.(StatusEventFn)
	case MessageEvent:
		_, ok = callback.(MessageEventFn)
	case ErrorEvent:
		_, ok = callback.(ErrorEventFn)
	case ReconnectingEvent:
		_, ok = callback.(ReconnectingEventFn)
	default:
		return fmt.Errorf("unknown event %q", eventName)
	}
	if !ok {
		return fmt.Errorf("invalid callback type %T for event %q", callback, eventName)
	}
	return nil
}
