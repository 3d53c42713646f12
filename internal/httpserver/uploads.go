package httpserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/dietplan/internal/batch"
)

const (
	uploadTTL  = time.Hour
	maxUploads = 64
)

type upload struct {
	ID       string
	Filename string
	Survey   *batch.Survey
	Created  time.Time
}

// uploadStore keeps parsed surveys between the upload and generate steps.
// Entries expire after ttl; the oldest is evicted past limit.
type uploadStore struct {
	mu    sync.Mutex
	items map[string]*upload
	ttl   time.Duration
	limit int
	now   func() time.Time
}

func newUploadStore(ttl time.Duration, limit int) *uploadStore {
	return &uploadStore{
		items: make(map[string]*upload),
		ttl:   ttl,
		limit: limit,
		now:   time.Now,
	}
}

func (s *uploadStore) put(filename string, survey *batch.Survey) *upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	if len(s.items) >= s.limit {
		s.evictOldest()
	}
	u := &upload{
		ID:       uuid.NewString(),
		Filename: filename,
		Survey:   survey,
		Created:  s.now(),
	}
	s.items[u.ID] = u
	return u
}

func (s *uploadStore) get(id string) (*upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(u.Created) > s.ttl {
		delete(s.items, id)
		return nil, false
	}
	return u, true
}

func (s *uploadStore) sweep() {
	now := s.now()
	for id, u := range s.items {
		if now.Sub(u.Created) > s.ttl {
			delete(s.items, id)
		}
	}
}

func (s *uploadStore) evictOldest() {
	var oldest *upload
	for _, u := range s.items {
		if oldest == nil || u.Created.Before(oldest.Created) {
			oldest = u
		}
	}
	if oldest != nil {
		delete(s.items, oldest.ID)
	}
}
