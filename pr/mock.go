package pr

import (
	"context"
	"sync"
	"time"
)

// MockProvider is an in-memory Provider for tests.
type MockProvider struct {
	mu     sync.Mutex
	nextID int
	prs    map[int]*PullRequest

	// CreateErr, when set, is returned from CreatePR.
	CreateErr error
	// UpdateErr, when set, is returned from UpdatePR.
	UpdateErr error
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{nextID: 1, prs: make(map[int]*PullRequest)}
}

// Seed inserts a pull request directly, returning its assigned ID.
func (m *MockProvider) Seed(p PullRequest) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	} else if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	m.prs[p.ID] = &p
	return p.ID
}

func (m *MockProvider) CreatePR(_ context.Context, opts Options) (*PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	for _, existing := range m.prs {
		if existing.Head == opts.Head && existing.State == StateOpen {
			return nil, ErrAlreadyExists
		}
	}

	base := opts.Base
	if base == "" {
		base = "main"
	}
	now := time.Now()
	p := &PullRequest{
		ID:        m.nextID,
		Title:     opts.Title,
		Body:      opts.Body,
		State:     StateOpen,
		Draft:     opts.Draft,
		Head:      opts.Head,
		Base:      base,
		CreatedAt: now,
		UpdatedAt: now,
		Labels:    append([]string(nil), opts.Labels...),
	}
	m.nextID++
	m.prs[p.ID] = p

	out := *p
	return &out, nil
}

func (m *MockProvider) GetPR(_ context.Context, id int) (*PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.prs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *MockProvider) UpdatePR(_ context.Context, id int, opts UpdateOptions) (*PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	p, ok := m.prs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if opts.Title != nil {
		p.Title = *opts.Title
	}
	if opts.Body != nil {
		p.Body = *opts.Body
	}
	if opts.Base != nil {
		p.Base = *opts.Base
	}
	if opts.Labels != nil {
		p.Labels = append([]string(nil), opts.Labels...)
	}
	p.UpdatedAt = time.Now()

	out := *p
	return &out, nil
}

func (m *MockProvider) ListPRs(_ context.Context, filter Filter) ([]*PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prs []*PullRequest
	for id := 1; id < m.nextID; id++ {
		p, ok := m.prs[id]
		if !ok {
			continue
		}
		if filter.State != "" && p.State != filter.State {
			continue
		}
		if filter.Base != "" && p.Base != filter.Base {
			continue
		}
		if filter.Head != "" && p.Head != filter.Head {
			continue
		}
		out := *p
		prs = append(prs, &out)
		if filter.Limit > 0 && len(prs) >= filter.Limit {
			break
		}
	}
	return prs, nil
}
