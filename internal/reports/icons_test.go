package reports

import "testing"

func TestClassifyIconKeywordTable(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Huge pothole near the market", "Car"},
		{"Traffic signal stuck on red", "Car"},
		{"graffiti on the underpass wall", "SprayCan"},
		{"Streetlight out on Elm St", "LightbulbOff"},
		{"POWER line sparking", "LightbulbOff"},
		{"illegal dumping behind the school", "Trash2"},
		{"broken bench in the park", "Wrench"},
		{"hazard on the cycle path", "TrafficCone"},
		{"water leaking from the main", "Waves"},
		{"overgrown tree blocking the sidewalk", "Trees"},
		{"insect infestation at the bus stop", "Bug"},
		{"something strange happening", "HelpCircle"},
		{"", "HelpCircle"},
	}

	for _, tc := range cases {
		if got := ClassifyIcon(tc.description); got != tc.want {
			t.Errorf("ClassifyIcon(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}

func TestClassifyIconFirstMatchWins(t *testing.T) {
	// "road" (rule 1) and "flood" (later rule) both match; the earlier rule
	// in table order must win.
	if got := ClassifyIcon("flooded road near the bridge"); got != "Car" {
		t.Fatalf("ClassifyIcon = %q, want Car (first matching rule)", got)
	}
}

func TestKnownIcon(t *testing.T) {
	for _, name := range []string{"Car", "SprayCan", "LightbulbOff", "Trash2", "Wrench", "TrafficCone", "Waves", "Trees", "Bug", "HelpCircle"} {
		if !KnownIcon(name) {
			t.Errorf("KnownIcon(%q) = false, want true", name)
		}
	}
	if KnownIcon("Rocket") {
		t.Error("KnownIcon(Rocket) = true, want false")
	}
}
