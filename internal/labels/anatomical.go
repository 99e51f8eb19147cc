package labels

import "strings"

type structureEntry struct {
	canonical string
	variants  []string
}

// structureTable maps canonical anatomical structures to substring variants.
// Order is authoritative: the first matching entry wins, grouped chest,
// abdomen, pelvis, head, extremities.
var structureTable = []structureEntry{
	{"lung", []string{"lung", "lungs", "pulmonary", "pneumonia"}},
	{"heart", []string{"heart", "cardiac", "myocardium"}},
	{"rib", []string{"rib", "ribs", "ribcage"}},
	{"chest", []string{"chest", "thorax", "thoracic"}},

	{"liver", []string{"liver", "hepatic"}},
	{"spleen", []string{"spleen", "splenic"}},
	{"kidney", []string{"kidney", "renal", "kidneys"}},
	{"kidney_right", []string{"kidney_right", "right_kidney", "right renal"}},
	{"kidney_left", []string{"kidney_left", "left_kidney", "left renal"}},
	{"pancreas", []string{"pancreas", "pancreatic"}},
	{"stomach", []string{"stomach", "gastric"}},
	{"intestine", []string{"intestine", "bowel", "intestinal"}},

	{"bladder", []string{"bladder", "urinary"}},
	{"uterus", []string{"uterus", "uterine"}},
	{"prostate", []string{"prostate", "prostatic"}},

	{"brain", []string{"brain", "cerebral", "cranial"}},
	{"skull", []string{"skull", "cranium"}},

	{"knee", []string{"knee", "knees"}},
	{"hip", []string{"hip", "hips", "pelvic"}},
	{"wrist", []string{"wrist", "wrists"}},
	{"shoulder", []string{"shoulder", "shoulders"}},
}

// Canonical maps a single raw label onto the canonical structure vocabulary.
// Unmatched labels pass through normalized.
func Canonical(raw string) string {
	lowered := strings.ToLower(raw)
	for _, entry := range structureTable {
		for _, variant := range entry.variants {
			if strings.Contains(lowered, variant) {
				return entry.canonical
			}
		}
	}
	return Normalize(raw)
}

// Anatomical maps raw labels onto the canonical structure vocabulary.
// Output preserves first-seen order with duplicates removed.
func Anatomical(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		label := Canonical(raw)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
