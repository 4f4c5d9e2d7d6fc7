package db

import "github.com/cyx-darren/go-query-cache/internal/cache/db/model"

// EvictBatch removes up to n least-recently-used entries. Every round
// peeks the unprotected LRU tail of each shard and evicts the entry with
// the globally smallest recency ordinal, so victim order is exact across
// shards. protectAfter > 0 shields entries touched at or after that
// cutoff (the high-priority-write rule); 0 disables protection.
//
// Returns how many entries and bytes were freed and the victims' key
// names so access tracking can forget them.
func (m *Map) EvictBatch(n int64, protectAfter int64) (evicted, freedBytes int64, victims []string) {
	for ; n > 0; n-- {
		victim, ok := m.pickVictim(protectAfter)
		if !ok {
			return
		}
		freed, hit := m.Remove(victim.Key().Value())
		if !hit {
			// Lost a race with a concurrent delete; that removal already
			// freed the slot this round was after.
			continue
		}
		evicted++
		freedBytes += freed
		victims = append(victims, victim.Name())
	}
	return
}

// pickVictim scans every shard's LRU tail for the globally oldest
// unprotected entry. The scan is lock-cheap: one RLock per shard.
func (m *Map) pickVictim(protectAfter int64) (victim *model.Entry, ok bool) {
	var bestSeq uint64
	for _, sh := range m.shards {
		if sh.Len() == 0 {
			continue
		}
		if e, hit := sh.peekVictim(protectAfter); hit {
			if victim == nil || e.Seq() < bestSeq {
				victim, bestSeq, ok = e, e.Seq(), true
			}
		}
	}
	return
}
