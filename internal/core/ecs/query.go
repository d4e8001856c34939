package ecs

// Each2 iterates over entities that have both component A and B.
// It iterates over the smaller store and checks the larger one.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for id, a := range sa.data {
			if b, ok := sb.data[id]; ok {
				fn(id, a, b)
			}
		}
		return
	}
	for id, b := range sb.data {
		if a, ok := sa.data[id]; ok {
			fn(id, a, b)
		}
	}
}

// Join2 returns, in ascending id order, the entities that have both A and B.
func Join2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B]) []EntityID {
	var ids []EntityID
	var has func(EntityID) bool
	if sa.Len() <= sb.Len() {
		ids, has = sa.IDs(), sb.Has
	} else {
		ids, has = sb.IDs(), sa.Has
	}
	out := ids[:0]
	for _, id := range ids {
		if has(id) {
			out = append(out, id)
		}
	}
	return out
}
