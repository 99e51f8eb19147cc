package labels_test

import (
	"reflect"
	"testing"

	"aura/internal/labels"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Left Lung", "left_lung"},
		{"  RIGHT   lung  ", "right_lung"},
		{"heart (enlarged)", "heart_enlarged"},
		{"kidney__left", "kidney_left"},
		{"_trachea_", "trachea"},
		{"T12-L1 vertebra", "t12-l1_vertebra"},
		{"", ""},
		{"***", ""},
	}
	for _, tc := range cases {
		if got := labels.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Left Lung", "heart (enlarged)", "kidney__left", "  spaced   out  ",
		"already_normal", "123", "a-b c_d", "",
	}
	for _, in := range inputs {
		once := labels.Normalize(in)
		twice := labels.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestAnatomical(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "variants collapse to canonical",
			in:   []string{"left lung", "right lung", "cardiac silhouette"},
			want: []string{"lung", "heart"},
		},
		{
			name: "unmatched passes through normalized",
			in:   []string{"Trachea"},
			want: []string{"trachea"},
		},
		{
			name: "first table entry wins",
			in:   []string{"pulmonary pneumonia"},
			want: []string{"lung"},
		},
		{
			name: "order preserved and deduplicated",
			in:   []string{"hepatic lesion", "liver", "splenic flexure"},
			want: []string{"liver", "spleen"},
		},
		{
			name: "empty input",
			in:   nil,
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := labels.Anatomical(tc.in)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Anatomical(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestRegionOf(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"lung", "heart"}, "chest"},
		{[]string{"liver"}, "abdomen"},
		{[]string{"bladder"}, "pelvis"},
		{[]string{"brain"}, "head"},
		{[]string{"knee"}, "extremity"},
		{[]string{"mystery_structure"}, "unknown"},
		{nil, "unknown"},
		// chest wins over abdomen because table order is authoritative
		{[]string{"liver", "lung"}, "chest"},
	}
	for _, tc := range cases {
		if got := labels.RegionOf(tc.in); got != tc.want {
			t.Errorf("RegionOf(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegions(t *testing.T) {
	got := labels.Regions([]string{"lung", "liver", "left kidney", "heart"})
	want := []string{"chest", "abdomen"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Regions = %v, want %v", got, want)
	}
	if regions := labels.Regions(nil); len(regions) != 0 {
		t.Fatalf("expected no regions for empty input, got %v", regions)
	}
}
