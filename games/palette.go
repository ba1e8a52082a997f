/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import "hash/fnv"

var (
	Colors = []string{
		"#e6194b", "#3cb44b", "#4363d8", "#f58231",
		"#911eb4", "#42d4f4", "#f032e6", "#469990",
		"#9a6324", "#800000", "#808000", "#000075",
	}

	Icons = []string{
		"cat", "dog", "fox", "owl", "bear", "frog",
		"panda", "otter", "whale", "koala", "tiger", "crab",
	}
)

// pick maps an identity to a stable palette slot. Not meant to be
// unpredictable, only spread out.
func pick(identityID, salt string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(salt))
	_, _ = h.Write([]byte(identityID))
	return int(h.Sum32() % uint32(n))
}

func PickColor(identityID string) string {
	return Colors[pick(identityID, "color:", len(Colors))]
}

func PickIcon(identityID string) string {
	return Icons[pick(identityID, "icon:", len(Icons))]
}
