package labels

import "strings"

// Body regions recognized by RegionOf and Regions.
const (
	RegionChest     = "chest"
	RegionAbdomen   = "abdomen"
	RegionPelvis    = "pelvis"
	RegionHead      = "head"
	RegionExtremity = "extremity"
	RegionUnknown   = "unknown"
)

type regionEntry struct {
	region   string
	keywords []string
}

// regionTable iteration order is authoritative so region detection stays
// deterministic: chest, abdomen, pelvis, head, extremity.
var regionTable = []regionEntry{
	{RegionChest, []string{"lung", "heart", "rib", "chest", "thorax", "trachea", "pleura", "mediastinum"}},
	{RegionAbdomen, []string{"liver", "spleen", "kidney", "pancreas", "stomach", "gallbladder", "bowel"}},
	{RegionPelvis, []string{"pelvis", "bladder", "uterus", "prostate"}},
	{RegionHead, []string{"brain", "skull", "head", "ventricle", "cerebrum", "cerebellum"}},
	{RegionExtremity, []string{"knee", "hip", "wrist", "shoulder", "ankle", "elbow", "femur", "tibia"}},
}

// RegionOf returns the first body region whose keyword list matches any label,
// or RegionUnknown when nothing matches.
func RegionOf(values []string) string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	for _, entry := range regionTable {
		for _, label := range lowered {
			for _, keyword := range entry.keywords {
				if strings.Contains(label, keyword) {
					return entry.region
				}
			}
		}
	}
	return RegionUnknown
}

// Regions maps every label to its coarse body region, preserving region table
// order and removing duplicates. Labels matching no region are ignored.
func Regions(values []string) []string {
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}

	var out []string
	for _, entry := range regionTable {
		matched := false
		for _, label := range lowered {
			for _, keyword := range entry.keywords {
				if strings.Contains(label, keyword) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			out = append(out, entry.region)
		}
	}
	return out
}
