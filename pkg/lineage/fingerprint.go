package lineage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
)

// YearSpan holds the temporal bounds of a node inside a fingerprint.
// A nil Dissolution marks an open-ended entity.
type YearSpan struct {
	Founding    int  `json:"founding"`
	Dissolution *int `json:"dissolution"`
}

// Fingerprint is the structural identity of a family: node and link IDs plus
// their years, with every human-readable field excluded. Two families with
// identical fingerprints are identical for layout purposes even when their
// display names differ. Renaming an entity never changes the fingerprint;
// any change to the ID sets or the years always does.
type Fingerprint struct {
	NodeIDs   []string            `json:"node_ids"`
	LinkIDs   []string            `json:"link_ids"`
	NodeYears map[string]YearSpan `json:"node_years"`
	LinkYears map[string]int      `json:"link_years"`
}

// NewFingerprint computes the fingerprint of a family. The function is pure:
// ID slices are sorted and the result depends only on structural content.
func NewFingerprint(f Family) Fingerprint {
	fp := Fingerprint{
		NodeIDs:   make([]string, 0, len(f.Nodes)),
		LinkIDs:   make([]string, 0, len(f.Links)),
		NodeYears: make(map[string]YearSpan, len(f.Nodes)),
		LinkYears: make(map[string]int, len(f.Links)),
	}
	for _, n := range f.Nodes {
		fp.NodeIDs = append(fp.NodeIDs, n.ID)
		fp.NodeYears[n.ID] = YearSpan{Founding: n.Founding, Dissolution: n.Dissolution}
	}
	for _, l := range f.Links {
		fp.LinkIDs = append(fp.LinkIDs, l.ID)
		fp.LinkYears[l.ID] = l.Year
	}
	slices.Sort(fp.NodeIDs)
	slices.Sort(fp.LinkIDs)
	return fp
}

// Hash returns the SHA-256 of the fingerprint's canonical JSON encoding as a
// 64-character lowercase hex string. encoding/json emits map keys in sorted
// order and struct fields in declaration order, so identical structural
// content always serializes identically. This string is the stable cache key
// external callers may rely on.
func (fp Fingerprint) Hash() string {
	data, _ := json.Marshal(fp)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two fingerprints describe the same structure.
func (fp Fingerprint) Equal(other Fingerprint) bool {
	if !slices.Equal(fp.NodeIDs, other.NodeIDs) || !slices.Equal(fp.LinkIDs, other.LinkIDs) {
		return false
	}
	for id, span := range fp.NodeYears {
		o, ok := other.NodeYears[id]
		if !ok || o.Founding != span.Founding {
			return false
		}
		if (o.Dissolution == nil) != (span.Dissolution == nil) {
			return false
		}
		if span.Dissolution != nil && *o.Dissolution != *span.Dissolution {
			return false
		}
	}
	for id, year := range fp.LinkYears {
		if o, ok := other.LinkYears[id]; !ok || o != year {
			return false
		}
	}
	return true
}
