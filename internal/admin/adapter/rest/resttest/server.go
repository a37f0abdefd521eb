// Package resttest runs an in-memory REST collection server on a loopback
// listener for tests that exercise the real fasthttp client.
package resttest

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Request is one request observed by the server.
type Request struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// Server serves GET/POST/PATCH/DELETE over named collections of JSON objects
// keyed by "_id".
type Server struct {
	URL string

	app *fiber.App
	ln  net.Listener

	mu       sync.Mutex
	data     map[string]map[string]map[string]interface{}
	order    map[string][]string
	seq      int
	failures map[string]failure
	delay    time.Duration
	requests []Request
}

type failure struct {
	status int
	body   fiber.Map
}

// NewServer starts a server and stops it when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		data:     make(map[string]map[string]map[string]interface{}),
		order:    make(map[string][]string),
		failures: make(map[string]failure),
	}
	s.app = fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	s.app.Use(s.intercept)
	s.app.Get("/:resource", s.list)
	s.app.Get("/:resource/:id", s.get)
	s.app.Post("/:resource", s.create)
	s.app.Patch("/:resource/:id", s.update)
	s.app.Delete("/:resource/:id", s.remove)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s.ln = ln
	s.URL = fmt.Sprintf("http://%s", ln.Addr().String())

	go func() {
		_ = s.app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = s.app.Shutdown()
	})
	return s
}

// Seed stores records under resource. Each record must carry an "_id".
func (s *Server) Seed(resource string, records ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		id, _ := r["_id"].(string)
		s.putLocked(resource, id, r)
	}
}

// Fail makes the next request matching "METHOD /path" answer with status and
// body instead of being served.
func (s *Server) Fail(method, path string, status int, body fiber.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Delay holds every response for d.
func (s *Server) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Requests returns the requests served so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Records returns the stored records of resource in insertion order.
func (s *Server) Records(resource string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(resource)
}

func (s *Server) intercept(c *fiber.Ctx) error {
	req := Request{Method: c.Method(), Path: c.Path()}
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req.Body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	delay := s.delay
	key := req.Method + " " + req.Path
	f, failing := s.failures[key]
	if failing {
		delete(s.failures, key)
	}
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failing {
		if f.body == nil {
			return c.SendStatus(f.status)
		}
		return c.Status(f.status).JSON(f.body)
	}
	return c.Next()
}

func (s *Server) list(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.listLocked(c.Params("resource")))
}

func (s *Server) get(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data[c.Params("resource")][c.Params("id")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	}
	return c.JSON(record)
}

func (s *Server) create(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := c.Params("resource") + "-" + strconv.Itoa(s.seq)
	body["_id"] = id
	s.putLocked(c.Params("resource"), id, body)
	return c.Status(fiber.StatusCreated).JSON(body)
}

func (s *Server) update(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data[c.Params("resource")][c.Params("id")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	}
	for k, v := range body {
		if k != "_id" {
			record[k] = v
		}
	}
	return c.JSON(record)
}

func (s *Server) remove(c *fiber.Ctx) error {
	resource, id := c.Params("resource"), c.Params("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[resource][id]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	}
	delete(s.data[resource], id)
	ids := s.order[resource][:0]
	for _, existing := range s.order[resource] {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	s.order[resource] = ids
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) putLocked(resource, id string, record map[string]interface{}) {
	if s.data[resource] == nil {
		s.data[resource] = make(map[string]map[string]interface{})
	}
	if _, exists := s.data[resource][id]; !exists {
		s.order[resource] = append(s.order[resource], id)
	}
	s.data[resource][id] = record
}

func (s *Server) listLocked(resource string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(s.order[resource]))
	for _, id := range s.order[resource] {
		out = append(out, s.data[resource][id])
	}
	return out
}

// IDs returns the stored ids of resource, sorted.
func (s *Server) IDs(resource string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := append([]string(nil), s.order[resource]...)
	sort.Strings(ids)
	return ids
}
