package models

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// IdentityIndex interns identity keys into dense uint32 ids so unique-user
// sets can live in bitmaps. Ids are assigned in first-seen order, which makes
// them deterministic for a given input order.
type IdentityIndex struct {
	ids  map[IdentityKey]uint32
	keys []IdentityKey
}

func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{ids: make(map[IdentityKey]uint32)}
}

func (ix *IdentityIndex) Intern(key IdentityKey) uint32 {
	if id, ok := ix.ids[key]; ok {
		return id
	}
	id := uint32(len(ix.keys))
	ix.ids[key] = id
	ix.keys = append(ix.keys, key)
	return id
}

func (ix *IdentityIndex) Key(id uint32) (IdentityKey, bool) {
	if int(id) >= len(ix.keys) {
		return IdentityKey{}, false
	}
	return ix.keys[id], true
}

// IdentitySet is a set of interned identities.
type IdentitySet struct {
	bm *roaring.Bitmap
}

func NewIdentitySet() *IdentitySet {
	return &IdentitySet{bm: roaring.New()}
}

func (s *IdentitySet) Add(id uint32) {
	s.bm.Add(id)
}

func (s *IdentitySet) Len() int {
	return int(s.bm.GetCardinality())
}

// Union folds other into s.
func (s *IdentitySet) Union(other *IdentitySet) {
	if other == nil {
		return
	}
	s.bm.Or(other.bm)
}

// Keys resolves the set back to identity keys in id order.
func (s *IdentitySet) Keys(ix *IdentityIndex) []IdentityKey {
	out := make([]IdentityKey, 0, s.Len())
	it := s.bm.Iterator()
	for it.HasNext() {
		if key, ok := ix.Key(it.Next()); ok {
			out = append(out, key)
		}
	}
	return out
}
