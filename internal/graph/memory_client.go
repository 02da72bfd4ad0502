package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrClosed is returned by a MemoryClient after Close.
var ErrClosed = errors.New("graph client closed")

// ExecutedQuery captures a cypher statement and the parameters it ran with.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// Responder produces the result for a statement matched by a MemoryClient.
type Responder func(params map[string]any) (Result, error)

type route struct {
	fragment string
	respond  Responder
}

// MemoryClient is an in-process Client for tests. It records every statement
// and answers reads from responders registered per cypher fragment.
type MemoryClient struct {
	mu           sync.Mutex
	writes       []ExecutedQuery
	reads        []ExecutedQuery
	routes       []route
	err          error
	connectivity error
	closed       bool
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent statement fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError makes VerifyConnectivity report err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// On registers a responder for any statement containing fragment. The first
// matching registration wins.
func (m *MemoryClient) On(fragment string, respond Responder) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route{fragment: fragment, respond: respond})
	return m
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(&m.writes, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(&m.reads, cypher, params)
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// WriteCalls returns a snapshot of executed write statements.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writes...)
}

// ReadCalls returns a snapshot of executed read statements.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.reads...)
}

// Reset forgets recorded statements. Responders and errors are kept.
func (m *MemoryClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
	m.reads = nil
}

func (m *MemoryClient) execute(log *[]ExecutedQuery, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Result{}, ErrClosed
	}
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return Result{}, err
	}
	*log = append(*log, ExecutedQuery{Query: cypher, Params: cloneMap(params)})
	var respond Responder
	for _, r := range m.routes {
		if strings.Contains(cypher, r.fragment) {
			respond = r.respond
			break
		}
	}
	m.mu.Unlock()

	if respond == nil {
		return Result{}, nil
	}
	return respond(cloneMap(params))
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
