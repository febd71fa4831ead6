package indexer

import (
	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/serde"
)

// splitFlakes divides flakes (already in comparator order) into chunks
// no larger than max, per spec §4.5's leaf-overflow split. A max <= 0
// disables splitting.
func splitFlakes(flakes []flake.Flake, max int) [][]flake.Flake {
	if max <= 0 || len(flakes) <= max {
		return [][]flake.Flake{flakes}
	}
	var chunks [][]flake.Flake
	for start := 0; start < len(flakes); start += max {
		end := start + max
		if end > len(flakes) {
			end = len(flakes)
		}
		chunks = append(chunks, flakes[start:end])
	}
	return chunks
}

// splitChildren divides a branch's children into chunks no larger than
// max, per spec §4.5's branch-overflow split.
func splitChildren(children []serde.ChildDescriptor, max int) [][]serde.ChildDescriptor {
	if max <= 0 || len(children) <= max {
		return [][]serde.ChildDescriptor{children}
	}
	var chunks [][]serde.ChildDescriptor
	for start := 0; start < len(children); start += max {
		end := start + max
		if end > len(children) {
			end = len(children)
		}
		chunks = append(chunks, children[start:end])
	}
	return chunks
}
