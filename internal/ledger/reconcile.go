package ledger

import "TrancheTrack/internal/model"

// MissingDefaults returns the defaults whose natural key is absent from
// existing, in default order.
func MissingDefaults(existing, defaults []model.Tranche) []model.Tranche {
	keys := make(map[model.NaturalKey]bool, len(existing))
	for _, t := range existing {
		keys[t.Key()] = true
	}
	var missing []model.Tranche
	for _, d := range defaults {
		if !keys[d.Key()] {
			keys[d.Key()] = true
			missing = append(missing, d.Clone())
		}
	}
	return missing
}

// Dedup keeps one tranche per natural key and returns the survivors in
// original order plus the removed records. Within a collision group the
// first member with shares wins, else the first member.
func Dedup(ts []model.Tranche) (kept, removed []model.Tranche) {
	winner := make(map[model.NaturalKey]int, len(ts))
	for i, t := range ts {
		k := t.Key()
		w, ok := winner[k]
		if !ok || (!ts[w].HasShares() && t.HasShares()) {
			winner[k] = i
		}
	}
	for i, t := range ts {
		if winner[t.Key()] == i {
			kept = append(kept, t)
		} else {
			removed = append(removed, t)
		}
	}
	return kept, removed
}

// Backfill sets shares on records lacking them from seeds. It returns the
// full set and the records it changed.
func Backfill(ts []model.Tranche, seeds ShareSeeds) (out, filled []model.Tranche) {
	out = make([]model.Tranche, len(ts))
	for i, t := range ts {
		t = t.Clone()
		if !t.HasShares() {
			if s, ok := seeds[t.Key()]; ok {
				t.Shares = model.Float(s)
				filled = append(filled, t)
			}
		}
		out[i] = t
	}
	return out, filled
}

// LocalOnly returns the local records whose natural key is absent from
// primary, stripped of their local identity.
func LocalOnly(primary, local []model.Tranche) []model.Tranche {
	orphans := MissingDefaults(primary, local)
	for i := range orphans {
		orphans[i].ID = ""
	}
	return orphans
}
