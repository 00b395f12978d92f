package dataset

import (
	"encoding/json"
	"sort"
	"sync"
)

// shard is one range-partitioned publisher document: prefix -> names.
type shard struct {
	state ImageState // reused tri-state: Pending / Loaded / NotFound
	data  map[string][]string
}

// Publishers resolves ISBN prefixes to registrant names. The data is
// range-partitioned into shards named "{firstPrefix}.json"; the shard
// holding a prefix is the one with the greatest key not exceeding it.
// Shards load lazily and are cached for the process lifetime.
type Publishers struct {
	mu      sync.Mutex
	client  *Client
	dir     string
	keys    []string // sorted shard keys from the manifest
	shards  map[string]*shard
	settled func()
}

// NewPublishers creates a resolver over the given sorted shard keys.
func NewPublishers(client *Client, dir string, keys []string, settled func()) *Publishers {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return &Publishers{
		client:  client,
		dir:     dir,
		keys:    sorted,
		shards:  make(map[string]*shard),
		settled: settled,
	}
}

// ShardKey returns the key of the shard covering prefix: the greatest key
// less than or equal to it. ok is false when the prefix sorts before every
// shard.
func (p *Publishers) ShardKey(prefix string) (string, bool) {
	// First key strictly greater than prefix; the predecessor covers it.
	i := sort.SearchStrings(p.keys, prefix)
	if i < len(p.keys) && p.keys[i] == prefix {
		return p.keys[i], true
	}
	if i == 0 {
		return "", false
	}
	return p.keys[i-1], true
}

// Lookup returns the registrant names for a prefix if its shard is already
// loaded. A miss with loaded=false means the shard fetch is in flight (it
// is started on first ask); the caller redraws when it settles.
func (p *Publishers) Lookup(prefix string) (names []string, loaded bool) {
	key, ok := p.ShardKey(prefix)
	if !ok {
		return nil, true // definitively outside every shard
	}

	p.mu.Lock()
	s, started := p.shards[key]
	if !started {
		s = &shard{}
		p.shards[key] = s
		go p.fetch(key, s)
	}
	state, data := s.state, s.data
	p.mu.Unlock()

	switch state {
	case Loaded:
		return data[prefix], true
	case NotFound:
		return nil, true
	default:
		return nil, false
	}
}

func (p *Publishers) fetch(key string, s *shard) {
	data, err := p.client.Get(p.dir + "/" + key + ".json")
	var parsed map[string][]string
	if err == nil {
		err = json.Unmarshal(data, &parsed)
	}

	p.mu.Lock()
	if err != nil {
		s.state = NotFound
	} else {
		s.state = Loaded
		s.data = parsed
	}
	p.mu.Unlock()

	if p.settled != nil {
		p.settled()
	}
}
