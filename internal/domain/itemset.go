package domain

// ItemSet is an insertion-ordered set of items keyed by ID.
// Membership checks go through a hash index; Items returns a copy in order.
// The zero value is ready to use. ItemSet is not safe for concurrent use.
type ItemSet struct {
	items []Item
	index map[ItemID]int
}

// NewItemSet builds a set from items, keeping the first occurrence of each id
func NewItemSet(items ...Item) *ItemSet {
	s := &ItemSet{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts item when no entry shares its id. Returns whether it was inserted.
func (s *ItemSet) Add(item Item) bool {
	if s.index == nil {
		s.index = make(map[ItemID]int)
	}
	if _, ok := s.index[item.ID]; ok {
		return false
	}
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Remove deletes the entry with id. Returns whether an entry was removed.
func (s *ItemSet) Remove(id ItemID) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	s.items = append(s.items[:pos:pos], s.items[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
	return true
}

// Contains reports whether an entry with id exists
func (s *ItemSet) Contains(id ItemID) bool {
	_, ok := s.index[id]
	return ok
}

// Get returns the entry with id
func (s *ItemSet) Get(id ItemID) (Item, bool) {
	pos, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[pos], true
}

// Len returns the number of entries
func (s *ItemSet) Len() int { return len(s.items) }

// Items returns the entries in insertion order
func (s *ItemSet) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy of the set
func (s *ItemSet) Clone() *ItemSet {
	c := &ItemSet{
		items: make([]Item, len(s.items)),
		index: make(map[ItemID]int, len(s.index)),
	}
	copy(c.items, s.items)
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}

// Dedup returns items with repeated ids removed, keeping first occurrences in order
func Dedup(items []Item) []Item {
	return NewItemSet(items...).Items()
}
